package modkit

import (
	"slices"

	"covidsignal/internal/modkit/httpkit"
)

// Built is the resolved mount plan of a module
type Built struct {
	Name     string
	Prefix   string
	Mw       httpkit.Middlewares
	Register func(httpkit.Router)
}

// Option adjusts a mount plan
type Option func(*Built)

// WithName names the module for logs and the port registry
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix mounts the module under prefix
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends per module middleware, outermost first
func WithMiddlewares(mw ...httpkit.Middleware) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithRegister adds routes next to the module's own; later calls chain
func WithRegister(fn func(httpkit.Router)) Option {
	return func(b *Built) {
		prev := b.Register
		b.Register = func(r httpkit.Router) {
			if prev != nil {
				prev(r)
			}
			fn(r)
		}
	}
}

// Build applies opts in order. The returned plan owns its middleware slice
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	b.Mw = slices.Clone(b.Mw)
	return b
}

// Mount registers fn and any extra routes under the plan's prefix with its
// middleware. A blank prefix mounts in a group on r
func (b Built) Mount(r httpkit.Router, fn func(httpkit.Router)) {
	httpkit.MountUnder(r, b.Prefix, b.Mw, func(sub httpkit.Router) {
		fn(sub)
		if b.Register != nil {
			b.Register(sub)
		}
	})
}
