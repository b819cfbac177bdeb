// Package router registers method-qualified ServeMux patterns behind a
// middleware chain.
package router

import (
	"net/http"
	"slices"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// chain runs its middleware outermost first.
type chain []Middleware

func (c chain) then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}

// with returns a new chain. Clip forces append to copy, so sibling groups
// never share a backing array.
func (c chain) with(mw ...Middleware) chain {
	return append(slices.Clip(c), mw...)
}

// Router is an http.Handler. Groups made from it share its mux and route
// table but carry their own chain.
type Router struct {
	mux    *http.ServeMux
	chain  chain
	routes *[]string
}

// New returns a Router whose chain wraps every route, the not-found
// handler included.
func New(mw ...Middleware) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		chain:  chain(mw),
		routes: new([]string),
	}
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Group returns a router that appends mw to this router's chain.
func (r *Router) Group(mw ...Middleware) *Router {
	return &Router{mux: r.mux, chain: r.chain.with(mw...), routes: r.routes}
}

// Handle registers h for "METHOD pattern". Route middleware runs inside the
// router's chain.
func (r *Router) Handle(method, pattern string, h http.Handler, mw ...Middleware) {
	p := method + " " + pattern
	r.mux.Handle(p, r.chain.with(mw...).then(h))
	*r.routes = append(*r.routes, p)
}

func (r *Router) Get(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodGet, pattern, h, mw...)
}

func (r *Router) Post(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPost, pattern, h, mw...)
}

func (r *Router) Put(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPut, pattern, h, mw...)
}

func (r *Router) Patch(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPatch, pattern, h, mw...)
}

func (r *Router) Delete(pattern string, h http.HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodDelete, pattern, h, mw...)
}

// NotFound handles requests no route matched. It sits behind the global
// chain so CORS preflights are answered here.
func (r *Router) NotFound(h http.HandlerFunc) {
	r.mux.Handle("/", r.chain.then(h))
}

// Routes lists registered patterns in registration order.
func (r *Router) Routes() []string {
	return slices.Clone(*r.routes)
}
