package mvux

import (
	"log/slog"

	"github.com/comalice/mvux/sub"
)

// Option configures a Program.
type Option func(*options)

type options struct {
	registry *sub.Registry
	renderer any
	observer Observer
	logger   *slog.Logger
	id       string
}

// WithRegistry sets the registry that owns the program's shared
// subscription resources. By default each Program gets its own.
func WithRegistry(r *sub.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithRenderer sets the function that receives every view the program
// computes. Its View type must match the App's.
func WithRenderer[View any](render func(View)) Option {
	return func(o *options) { o.renderer = render }
}

// WithObserver reports every committed step to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger sets the program's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithID overrides the generated program ID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}
