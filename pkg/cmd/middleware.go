package cmd

import "context"

// Middleware decorates a command, for example with a permission check or
// metrics. The result is still a Command.
type Middleware func(Command) Command

// RunFunc has the signature of Command.Run.
type RunFunc func(ctx context.Context, inv *Invocation) error

// Apply decorates c with mws. mws[0] sits closest to c, so the last
// middleware runs first.
func Apply(c Command, mws ...Middleware) Command {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}

// Wrap returns c with Run replaced by run. Name and Description still come
// from c, and Root(result) returns c's root.
func Wrap(c Command, run RunFunc) Command {
	return &layer{inner: c, run: run}
}

type layer struct {
	inner Command
	run   RunFunc
}

func (l *layer) Name() string                                   { return l.inner.Name() }
func (l *layer) Description() string                            { return l.inner.Description() }
func (l *layer) Run(ctx context.Context, inv *Invocation) error { return l.run(ctx, inv) }
func (l *layer) Unwrap() Command                                { return l.inner }

// Root strips every middleware layer from c. Optional interfaces such as
// Privileged and Aliased are checked on the root.
func Root(c Command) Command {
	for {
		l, ok := c.(interface{ Unwrap() Command })
		if !ok {
			return c
		}
		c = l.Unwrap()
	}
}
