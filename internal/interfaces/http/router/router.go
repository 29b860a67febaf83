// Package router wires handlers onto the gin engine under a versioned
// API prefix.
package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by each handler; it mounts the handler's
// routes on the group it receives.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router collects registrars and group-level middleware, then mounts
// everything under /api/<version> in one Setup call.
type Router struct {
	engine     *gin.Engine
	version    string
	registrars []RouteRegistrar
	middleware []gin.HandlerFunc
}

type RouterOption func(*Router)

// WithAPIVersion overrides the default "v1" prefix segment.
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.version = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Register(reg RouteRegistrar) *Router {
	r.registrars = append(r.registrars, reg)
	return r
}

// Use appends middleware that runs for every route in the API group, ahead
// of the handlers.
func (r *Router) Use(mw ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, mw...)
	return r
}

// Setup mounts the group and hands it to every registrar.
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.version)
	api.Use(r.middleware...)
	for _, reg := range r.registrars {
		reg.RegisterRoutes(api)
	}
}
