package mvc

import (
	"net/http"
	"sort"
	"sync"

	"musicstore/pkg/container"
	apperrors "musicstore/pkg/errors"
)

// FilterScope orders filters that share the same Order.
type FilterScope int

const (
	ScopeFirst      FilterScope = 0
	ScopeGlobal     FilterScope = 10
	ScopeController FilterScope = 20
	ScopeAction     FilterScope = 30
	ScopeLast       FilterScope = 100
)

// DefaultOrder marks a filter without an explicit order.
const DefaultOrder = -1

// Filter wraps a filter instance with its position in the pipeline. The
// instance is used by the pipeline only if it implements ActionFilter or
// ExceptionFilter.
type Filter struct {
	Instance interface{}
	Scope    FilterScope
	Order    int
}

// ActionExecutingContext is passed to filters before the action runs.
// Setting Result skips the action and the remaining filters.
type ActionExecutingContext struct {
	*ControllerContext
	Descriptor ActionDescriptor
	Result     ActionResult
}

// ActionExecutedContext is passed to filters after the action ran. Filters
// may replace Result or clear Err.
type ActionExecutedContext struct {
	*ControllerContext
	Descriptor ActionDescriptor
	Result     ActionResult
	Err        error
	Canceled   bool
}

// ActionFilter runs around an action.
type ActionFilter interface {
	OnActionExecuting(ctx *ActionExecutingContext) error
	OnActionExecuted(ctx *ActionExecutedContext) error
}

// ExceptionContext is passed to exception filters when the action or one
// of its filters failed.
type ExceptionContext struct {
	*ControllerContext
	Descriptor ActionDescriptor
	Err        error
	Result     ActionResult
	Handled    bool
}

// ExceptionFilter may turn an error into a result.
type ExceptionFilter interface {
	OnException(ctx *ExceptionContext)
}

// FilterProvider supplies filters for one action invocation.
type FilterProvider interface {
	GetFilters(cc *ControllerContext, ad ActionDescriptor) ([]Filter, error)
}

// FilterProviderFunc adapts a function to FilterProvider.
type FilterProviderFunc func(cc *ControllerContext, ad ActionDescriptor) ([]Filter, error)

func (f FilterProviderFunc) GetFilters(cc *ControllerContext, ad ActionDescriptor) ([]Filter, error) {
	return f(cc, ad)
}

// FilterProviders aggregates several providers.
type FilterProviders []FilterProvider

// GetFilters collects every provider's filters and sorts them by Order and
// then Scope. The sort is stable, so ties keep provider order.
func (fp FilterProviders) GetFilters(cc *ControllerContext, ad ActionDescriptor) ([]Filter, error) {
	var all []Filter
	for _, p := range fp {
		filters, err := p.GetFilters(cc, ad)
		if err != nil {
			return nil, err
		}
		all = append(all, filters...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Order != all[j].Order {
			return all[i].Order < all[j].Order
		}
		return all[i].Scope < all[j].Scope
	})
	return all, nil
}

// GlobalFilterCollection holds filters applied to every action.
type GlobalFilterCollection struct {
	mu      sync.RWMutex
	filters []Filter
}

func NewGlobalFilterCollection() *GlobalFilterCollection {
	return &GlobalFilterCollection{}
}

// Add appends instance with DefaultOrder.
func (g *GlobalFilterCollection) Add(instance interface{}) {
	g.AddWithOrder(instance, DefaultOrder)
}

func (g *GlobalFilterCollection) AddWithOrder(instance interface{}, order int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.filters = append(g.filters, Filter{Instance: instance, Scope: ScopeGlobal, Order: order})
}

func (g *GlobalFilterCollection) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.filters)
}

func (g *GlobalFilterCollection) GetFilters(*ControllerContext, ActionDescriptor) ([]Filter, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Filter(nil), g.filters...), nil
}

// ControllerFilterProvider returns the filters a controller declares for
// itself, at controller scope.
type ControllerFilterProvider struct{}

func (ControllerFilterProvider) GetFilters(cc *ControllerContext, _ ActionDescriptor) ([]Filter, error) {
	d, ok := cc.Controller.(FilterDeclarer)
	if !ok {
		return nil, nil
	}
	declared := d.DeclaredFilters()
	out := make([]Filter, 0, len(declared))
	for _, f := range declared {
		f.Scope = ScopeController
		out = append(out, f)
	}
	return out, nil
}

// ContainerFilterProvider exposes every ActionFilter registered in the
// registry, in registration order, at first scope with default order.
type ContainerFilterProvider struct {
	registry *container.Registry
}

func NewContainerFilterProvider(registry *container.Registry) *ContainerFilterProvider {
	return &ContainerFilterProvider{registry: registry}
}

func (p *ContainerFilterProvider) GetFilters(*ControllerContext, ActionDescriptor) ([]Filter, error) {
	filters, err := container.ResolveAllOf[ActionFilter](p.registry)
	if err != nil {
		return nil, err
	}
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		out = append(out, Filter{Instance: f, Scope: ScopeFirst, Order: DefaultOrder})
	}
	return out, nil
}

// HandleErrorInfo is the model of the error view.
type HandleErrorInfo struct {
	Controller string `json:"controller"`
	Action     string `json:"action"`
	Message    string `json:"message"`
}

// HandleErrorFilter renders server errors with the shared error view.
// Client errors (status below 500) are left to the error handler.
type HandleErrorFilter struct {
	View string
}

func (f *HandleErrorFilter) OnException(ctx *ExceptionContext) {
	if ctx.Handled || ctx.Err == nil {
		return
	}
	if appErr := apperrors.GetAppError(ctx.Err); appErr != nil && appErr.HTTPStatus != 0 && appErr.HTTPStatus < http.StatusInternalServerError {
		return
	}
	view := f.View
	if view == "" {
		view = "Shared/Error"
	}
	ctx.Result = &ViewResult{
		ViewName: view,
		Status:   http.StatusInternalServerError,
		Model: HandleErrorInfo{
			Controller: ctx.Descriptor.ControllerName,
			Action:     ctx.Descriptor.ActionName,
			Message:    "An error occurred while processing your request.",
		},
	}
	ctx.Handled = true
}
