package mvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"musicstore/pkg/container"
	apperrors "musicstore/pkg/errors"
	"musicstore/pkg/observability"
)

// Handler dispatches {controller}/{action}/{id} requests through the
// controller factory and the filter pipeline.
type Handler struct {
	builder  *ControllerBuilder
	resolver DependencyResolver
	globals  *GlobalFilterCollection
	views    *ViewEngine
	errors   *apperrors.ErrorHandler
	tracer   *observability.Tracer
	logger   *zap.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

func WithTracer(tracer *observability.Tracer) HandlerOption {
	return func(h *Handler) { h.tracer = tracer }
}

func WithGlobalFilters(globals *GlobalFilterCollection) HandlerOption {
	return func(h *Handler) { h.globals = globals }
}

func NewHandler(builder *ControllerBuilder, resolver DependencyResolver, errorHandler *apperrors.ErrorHandler, logger *zap.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = NewDefaultDependencyResolver()
	}
	if errorHandler == nil {
		errorHandler = apperrors.NewErrorHandler(logger, false)
	}
	h := &Handler{
		builder:  builder,
		resolver: resolver,
		globals:  NewGlobalFilterCollection(),
		errors:   errorHandler,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.views = NewViewEngine(resolver, logger)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route := ParseRoute(r.URL.Path)
	h.Dispatch(w, r, route)
}

// Dispatch runs the pipeline for an already matched route.
func (h *Handler) Dispatch(w http.ResponseWriter, r *http.Request, route RouteData) {
	rc := &RequestContext{Request: r, Route: route}
	factory := h.builder.GetControllerFactory()

	var controller Controller
	err := h.tracer.Trace(r.Context(), "activate "+route.Controller, func(context.Context) error {
		var err error
		controller, err = factory.CreateController(rc, route.Controller)
		return err
	})
	if err != nil {
		h.errors.Handle(w, r, controllerError(route.Controller, err))
		return
	}
	defer func() {
		if err := factory.ReleaseController(controller); err != nil {
			h.logger.Warn("controller release failed",
				zap.String("controller", route.Controller),
				zap.Error(err))
		}
	}()
	h.tracer.Annotate(r.Context(), "controller", route.Controller)

	action, ok := controller.Action(r.Method, route.Action)
	if !ok {
		h.errors.Handle(w, r, apperrors.NewNotFoundError(fmt.Sprintf("action %s/%s", route.Controller, route.Action)))
		return
	}
	route = canonicalRoute(factory, controller, r.Method, route)

	cc := &ControllerContext{
		Request:        r,
		Route:          route,
		ControllerName: route.Controller,
		Controller:     controller,
		Session:        factory.GetControllerSessionBehavior(rc, route.Controller),
		views:          h.views,
		w:              w,
	}
	ad := ActionDescriptor{ControllerName: route.Controller, ActionName: route.Action, Method: r.Method}

	filters, err := h.filters(cc, ad)
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewInternalError("failed to gather action filters").WithCause(err))
		return
	}

	result, err := h.invoke(cc, ad, action, filters)
	if err != nil {
		result, err = h.handleException(cc, ad, filters, err)
	}
	if err == nil && result != nil {
		err = result.ExecuteResult(cc, w)
	}
	if err != nil {
		h.errors.Handle(w, r, err)
	}
}

// canonicalRoute replaces the controller and action names of route with
// their registered spelling, so view names and logs do not depend on how
// the URL was typed.
func canonicalRoute(factory ControllerFactory, controller Controller, method string, route RouteData) RouteData {
	if namer, ok := factory.(ControllerNamer); ok {
		if name, ok := namer.ControllerName(route.Controller); ok {
			route.Controller = name
		}
	}
	if namer, ok := controller.(ActionNamer); ok {
		if name, ok := namer.ActionName(method, route.Action); ok {
			route.Action = name
		}
	}
	return route
}

func controllerError(name string, err error) error {
	if errors.Is(err, ErrControllerNotFound) {
		return apperrors.NewNotFoundError("controller " + name).WithCause(err)
	}
	if apperrors.GetAppError(err) != nil {
		return err
	}
	return apperrors.NewResolutionError("controller "+name, err)
}

// filters gathers the global, controller-declared and resolver-provided
// filters.
func (h *Handler) filters(cc *ControllerContext, ad ActionDescriptor) ([]Filter, error) {
	providers := FilterProviders{h.globals, ControllerFilterProvider{}}
	extra, err := h.resolver.GetServices(container.Of[FilterProvider]())
	if err != nil {
		return nil, err
	}
	for _, p := range extra {
		if fp, ok := p.(FilterProvider); ok {
			providers = append(providers, fp)
		}
	}
	return providers.GetFilters(cc, ad)
}

// invoke runs executing filters in order, the action, then executed filters
// in reverse. A filter that sets a result stops the descent; only the
// filters that already ran see the executed callback.
func (h *Handler) invoke(cc *ControllerContext, ad ActionDescriptor, action ActionFunc, filters []Filter) (ActionResult, error) {
	var actionFilters []ActionFilter
	for _, f := range filters {
		if af, ok := f.Instance.(ActionFilter); ok {
			actionFilters = append(actionFilters, af)
		}
	}

	executing := &ActionExecutingContext{ControllerContext: cc, Descriptor: ad}
	ran := 0
	for _, f := range actionFilters {
		if err := f.OnActionExecuting(executing); err != nil {
			return nil, err
		}
		if executing.Result != nil {
			break
		}
		ran++
	}

	executed := &ActionExecutedContext{ControllerContext: cc, Descriptor: ad}
	if executing.Result != nil {
		executed.Result = executing.Result
		executed.Canceled = true
	} else {
		executed.Result, executed.Err = action(cc)
	}

	for i := ran - 1; i >= 0; i-- {
		if err := actionFilters[i].OnActionExecuted(executed); err != nil {
			return nil, err
		}
	}
	return executed.Result, executed.Err
}

func (h *Handler) handleException(cc *ControllerContext, ad ActionDescriptor, filters []Filter, err error) (ActionResult, error) {
	ec := &ExceptionContext{ControllerContext: cc, Descriptor: ad, Err: err}
	for i := len(filters) - 1; i >= 0; i-- {
		if ef, ok := filters[i].Instance.(ExceptionFilter); ok {
			ef.OnException(ec)
		}
	}
	if ec.Handled {
		h.logger.Error("action failed",
			zap.String("controller", ad.ControllerName),
			zap.String("action", ad.ActionName),
			zap.Error(err))
		return ec.Result, nil
	}
	return nil, err
}
