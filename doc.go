// Package mvux is a Model-View-Update runtime.
//
// An application is a pure Update function from a message and a model to a
// new model and a command, plus a Subscriptions function describing the
// standing event sources the model wants. A Program owns the current model,
// feeds it messages one at a time from a single goroutine, executes the
// returned commands and keeps the subscription tree in step with the model.
//
//	p, err := mvux.New(mvux.App[int, string, string]{
//		Init:   func() (int, command.Cmd[string]) { return 0, command.None[string]() },
//		Update: func(msg string, n int) (int, command.Cmd[string]) { return n + 1, command.None[string]() },
//		View:   func(_ mvux.Dispatcher[string], n int) string { return strconv.Itoa(n) },
//	}, mvux.WithRenderer(func(v string) { fmt.Println(v) }))
//	if err != nil {
//		return err
//	}
//	p.Start(ctx)
//	p.Dispatch("inc")
//
// Effects live in the command and task packages, subscriptions in sub, and
// decoding of untyped input in decode.
package mvux
