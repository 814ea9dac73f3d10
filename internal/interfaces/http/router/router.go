package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts its routes on the versioned API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router owns the /api/<version> group and the middleware shared by
// every API route. Probes and other unversioned routes go on the engine.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

type RouterOption func(*Router)

func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

func (r *Router) BasePath() string { return "/api/" + r.apiVersion }

// Setup mounts every registrar and returns the API group.
func (r *Router) Setup() *gin.RouterGroup {
	api := r.engine.Group(r.BasePath(), r.middleware...)
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
	}
	return api
}

// Route is a method and path relative to the API base.
type Route struct {
	Method string
	Path   string
}

type endpoint struct {
	Route
	chain []gin.HandlerFunc
}

// DomainGroup is a declarative route table for one area of the API
// (user, basket, partner...). It can nest and carries its own middleware.
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	endpoints  []endpoint
	children   []*DomainGroup
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (dg *DomainGroup) Name() string   { return dg.name }
func (dg *DomainGroup) Prefix() string { return dg.prefix }

func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Handle adds a route. Nil entries in handlers are dropped, so optional
// guards such as a disabled rate limiter can be passed as is.
func (dg *DomainGroup) Handle(method, path string, handlers ...gin.HandlerFunc) *DomainGroup {
	var chain []gin.HandlerFunc
	for _, h := range handlers {
		if h != nil {
			chain = append(chain, h)
		}
	}
	dg.endpoints = append(dg.endpoints, endpoint{Route{method, path}, chain})
	return dg
}

func (dg *DomainGroup) GET(path string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, path, h...)
}

func (dg *DomainGroup) POST(path string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, path, h...)
}

func (dg *DomainGroup) PUT(path string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPut, path, h...)
}

func (dg *DomainGroup) DELETE(path string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodDelete, path, h...)
}

// Group nests a child group that inherits this group's prefix and middleware.
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	dg.children = append(dg.children, child)
	return child
}

func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, e := range dg.endpoints {
		group.Handle(e.Method, e.Path, e.chain...)
	}
	for _, child := range dg.children {
		child.RegisterRoutes(group)
	}
}

// Routes flattens the table, own routes first, with paths that include
// this group's prefix.
func (dg *DomainGroup) Routes() []Route {
	var out []Route
	for _, e := range dg.endpoints {
		out = append(out, Route{e.Method, under(dg.prefix, e.Path)})
	}
	for _, child := range dg.children {
		for _, r := range child.Routes() {
			out = append(out, Route{r.Method, under(dg.prefix, r.Path)})
		}
	}
	return out
}

func under(prefix, path string) string {
	if path == "/" {
		path = ""
	}
	if p := prefix + path; p != "" {
		return p
	}
	return "/"
}
