package mvc

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"musicstore/pkg/common"
	apperrors "musicstore/pkg/errors"
)

// Controller exposes the actions it can run.
type Controller interface {
	Action(method, name string) (ActionFunc, bool)
}

// ActionFunc runs one action and returns the result to execute.
type ActionFunc func(cc *ControllerContext) (ActionResult, error)

// FilterDeclarer is implemented by controllers that carry their own
// filters, the equivalent of filter attributes on the controller class.
type FilterDeclarer interface {
	DeclaredFilters() []Filter
}

// ActionNamer is implemented by controllers that know the registered
// spelling of their action names.
type ActionNamer interface {
	ActionName(method, name string) (string, bool)
}

type actionEntry struct {
	name string
	fn   ActionFunc
}

// ActionMap is a method-aware action table. Names match case-insensitively
// and an action registered for "" answers any method not registered
// explicitly.
type ActionMap map[string]actionEntry

func actionKey(method, name string) string {
	return strings.ToUpper(method) + " " + strings.ToLower(name)
}

// Handle registers fn for method and name.
func (m ActionMap) Handle(method, name string, fn ActionFunc) ActionMap {
	m[actionKey(method, name)] = actionEntry{name: name, fn: fn}
	return m
}

// Any registers fn for every method.
func (m ActionMap) Any(name string, fn ActionFunc) ActionMap {
	return m.Handle("", name, fn)
}

func (m ActionMap) lookup(method, name string) (actionEntry, bool) {
	if e, ok := m[actionKey(method, name)]; ok {
		return e, true
	}
	e, ok := m[actionKey("", name)]
	return e, ok
}

func (m ActionMap) Action(method, name string) (ActionFunc, bool) {
	e, ok := m.lookup(method, name)
	return e.fn, ok
}

// ActionName returns name as it was registered.
func (m ActionMap) ActionName(method, name string) (string, bool) {
	e, ok := m.lookup(method, name)
	return e.name, ok
}

// ControllerContext carries everything an action, filter and result needs.
type ControllerContext struct {
	Request        *http.Request
	Route          RouteData
	ControllerName string
	Controller     Controller
	Session        SessionStateBehavior

	views *ViewEngine
	w     http.ResponseWriter
}

func (cc *ControllerContext) Context() context.Context {
	return cc.Request.Context()
}

// ClientIP is the caller's address without the port.
func (cc *ControllerContext) ClientIP() string {
	return common.ClientIP(cc.Request)
}

// Param returns a value from the route id, the query string or the posted
// form, in that order.
func (cc *ControllerContext) Param(name string) string {
	if strings.EqualFold(name, "id") && cc.Route.ID != "" {
		return cc.Route.ID
	}
	if v := cc.Request.URL.Query().Get(name); v != "" {
		return v
	}
	return cc.Request.PostFormValue(name)
}

// IntParam parses Param(name). A missing or malformed value is a validation
// error.
func (cc *ControllerContext) IntParam(name string) (int, error) {
	raw := cc.Param(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid " + name).
			WithDetails(map[string]interface{}{name: raw})
	}
	return n, nil
}

// BindJSON decodes the request body into dst.
func (cc *ControllerContext) BindJSON(dst interface{}) error {
	if err := common.ParseJSONBody(cc.w, cc.Request, dst, 1<<20); err != nil {
		return apperrors.NewValidationError("malformed request body").WithCause(err)
	}
	return nil
}

// ActionDescriptor names the action a filter lookup is for.
type ActionDescriptor struct {
	ControllerName string
	ActionName     string
	Method         string
}
