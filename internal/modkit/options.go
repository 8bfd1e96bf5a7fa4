package modkit

import (
	"net/http"
)

// Option adjusts how a module is named and mounted
type Option func(*Built)

// WithName sets the name a module registers its ports under
func WithName(name string) Option {
	return func(b *Built) { b.Name = name }
}

// WithPrefix mounts the module under path. An empty path mounts it in a group at the
// root of the parent router
func WithPrefix(path string) Option {
	return func(b *Built) { b.Prefix = path }
}

// WithMiddlewares appends middlewares that wrap only this module's routes
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}
