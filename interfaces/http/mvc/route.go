package mvc

import (
	"net/http"
	"strings"
)

const (
	DefaultController = "Home"
	DefaultAction     = "Index"
)

// RouteData holds the values matched by {controller}/{action}/{id}.
type RouteData struct {
	Controller string
	Action     string
	ID         string
}

// ParseRoute matches path against {controller}/{action}/{id}, filling the
// Home/Index defaults. Extra segments are ignored.
func ParseRoute(path string) RouteData {
	rd := RouteData{Controller: DefaultController, Action: DefaultAction}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 0 && parts[0] != "" {
		rd.Controller = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		rd.Action = parts[1]
	}
	if len(parts) > 2 {
		rd.ID = parts[2]
	}
	return rd
}

// RequestContext is what a controller factory sees of the request.
type RequestContext struct {
	Request *http.Request
	Route   RouteData
}
