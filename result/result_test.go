package result

import (
	"errors"
	"testing"
)

func TestResultAccessors(t *testing.T) {
	ok := Ok[string](42)
	if !ok.IsOk() || ok.IsErr() {
		t.Fatal("Ok should report IsOk")
	}
	if v, isOk := ok.Value(); !isOk || v != 42 {
		t.Errorf("Value() = %v, %v; want 42, true", v, isOk)
	}
	if _, isErr := ok.Error(); isErr {
		t.Error("Error() on Ok should report false")
	}

	bad := Err[string, int]("boom")
	if bad.IsOk() {
		t.Fatal("Err should not report IsOk")
	}
	if e, isErr := bad.Error(); !isErr || e != "boom" {
		t.Errorf("Error() = %q, %v; want boom, true", e, isErr)
	}
	if got := bad.WithDefault(7); got != 7 {
		t.Errorf("WithDefault = %d, want 7", got)
	}
}

func TestMapAndThen(t *testing.T) {
	double := func(n int) int { return n * 2 }
	if got := Map(Ok[string](3), double); got.WithDefault(0) != 6 {
		t.Errorf("Map(Ok 3) = %v, want Ok(6)", got)
	}

	calls := 0
	next := func(n int) Result[string, int] {
		calls++
		return Ok[string](n + 1)
	}
	r := AndThen(Err[string, int]("e"), next)
	if calls != 0 {
		t.Errorf("continuation called %d times on Err", calls)
	}
	if e, _ := r.Error(); e != "e" {
		t.Errorf("AndThen(Err) error = %q, want e", e)
	}

	m := MapError(Err[string, int]("e"), func(s string) int { return len(s) })
	if e, _ := m.Error(); e != 1 {
		t.Errorf("MapError = %v, want 1", e)
	}
}

func TestFromPair(t *testing.T) {
	if r := FromPair(1, nil); !r.IsOk() {
		t.Error("FromPair(nil err) should be Ok")
	}
	want := errors.New("x")
	r := FromPair(0, want)
	if e, _ := r.Error(); !errors.Is(e, want) {
		t.Errorf("FromPair error = %v, want %v", e, want)
	}
}

func TestOption(t *testing.T) {
	s := Some("a")
	if v, ok := s.Get(); !ok || v != "a" {
		t.Errorf("Some.Get() = %q, %v", v, ok)
	}
	n := None[string]()
	if n.IsSome() {
		t.Error("None should not be Some")
	}
	if n.OrElse("z") != "z" {
		t.Error("OrElse on None should return default")
	}
	if got := MapOption(Some(2), func(n int) int { return n * 10 }); got.OrElse(0) != 20 {
		t.Errorf("MapOption = %v", got)
	}
	if got := n.String(); got != "None" {
		t.Errorf("None.String() = %q", got)
	}
}
