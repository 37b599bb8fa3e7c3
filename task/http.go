package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/comalice/mvux/decode"
	"github.com/comalice/mvux/result"
)

// maxBodyBytes bounds how much of a response body GetJSON reads.
const maxBodyBytes = 4 << 20

// HTTPErrorKind classifies why an HTTP task failed.
type HTTPErrorKind int

const (
	BadURL HTTPErrorKind = iota
	Timeout
	NetworkError
	BadStatus
	BadBody
)

func (k HTTPErrorKind) String() string {
	switch k {
	case BadURL:
		return "bad url"
	case Timeout:
		return "timeout"
	case NetworkError:
		return "network error"
	case BadStatus:
		return "bad status"
	case BadBody:
		return "bad body"
	}
	return fmt.Sprintf("HTTPErrorKind(%d)", int(k))
}

// HTTPError is the failure value of GetJSON.
type HTTPError struct {
	Kind   HTTPErrorKind
	URL    string
	Status int    // set for BadStatus
	Reason string // decoder message for BadBody
	Err    error
}

func (e *HTTPError) Error() string {
	switch e.Kind {
	case BadStatus:
		return fmt.Sprintf("GET %s: %s %d", e.URL, e.Kind, e.Status)
	case BadBody:
		return fmt.Sprintf("GET %s: %s: %s", e.URL, e.Kind, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("GET %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("GET %s: %s", e.URL, e.Kind)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// GetJSON fetches url and decodes the JSON body with d. A nil client means
// http.DefaultClient. The request runs on its own goroutine and is bound to
// the context passed to Execute.
func GetJSON[T any](client *http.Client, url string, d decode.Decoder[T]) Task[*HTTPError, T] {
	if client == nil {
		client = http.DefaultClient
	}
	return New(func(ctx context.Context, done func(result.Result[*HTTPError, T])) {
		go func() {
			v, herr := fetchJSON(ctx, client, url, d)
			if herr != nil {
				done(result.Err[*HTTPError, T](herr))
				return
			}
			done(result.Ok[*HTTPError](v))
		}()
	})
}

func fetchJSON[T any](ctx context.Context, client *http.Client, url string, d decode.Decoder[T]) (T, *HTTPError) {
	var zero T
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zero, &HTTPError{Kind: BadURL, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return zero, &HTTPError{Kind: Timeout, URL: url, Err: err}
		}
		return zero, &HTTPError{Kind: NetworkError, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, &HTTPError{Kind: BadStatus, URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return zero, &HTTPError{Kind: NetworkError, URL: url, Err: err}
	}
	r := d.DecodeString(string(body))
	if msg, failed := r.Error(); failed {
		return zero, &HTTPError{Kind: BadBody, URL: url, Reason: msg}
	}
	v, _ := r.Value()
	return v, nil
}
