package server

import (
	"net/http"
	"slices"
	"sync"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing, so paths may carry wildcards such as /api/songs/{id}.
// Middleware added with [BasicRouter.Use] wraps the whole mux; middleware given to [BasicRouter.With] only wraps
// the handlers registered through the returned router.
type BasicRouter struct {
	mux         *http.ServeMux
	root        *BasicRouter
	middlewares []Middleware
	scoped      []Middleware

	once    sync.Once
	handler http.Handler
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	r := &BasicRouter{mux: http.NewServeMux()}
	r.root = r
	return r
}

// Use adds [Middleware] to the router-wide stack, applied in the order it's added.
// It must be called before the first request is served.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.root.middlewares = append(r.root.middlewares, middleware...)
}

// With returns a router sharing this router's routes whose handlers are additionally wrapped with middleware.
func (r *BasicRouter) With(middleware ...Middleware) *BasicRouter {
	return &BasicRouter{
		mux:    r.mux,
		root:   r.root,
		scoped: append(slices.Clone(r.scoped), middleware...),
	}
}

// Handle registers a handler for the specified HTTP method and path.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(method+" "+path, r.Apply(handler))
}

// Handler registers a custom Handler implementation.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	root := r.root
	root.once.Do(func() {
		root.handler = chain(root.mux, root.middlewares)
	})
	root.handler.ServeHTTP(w, req)
}

// Apply wraps a handler with the router's scoped middleware.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	return chain(handler, r.scoped)
}

// chain wraps handler so that the first middleware runs outermost.
func chain(handler http.Handler, middlewares []Middleware) http.Handler {
	wrapped := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}
