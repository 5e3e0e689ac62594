package mvc

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"musicstore/pkg/container"
	apperrors "musicstore/pkg/errors"
)

// journal records the order in which pipeline callbacks run.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(s string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, s)
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type namedFilter struct {
	name  string
	log   *journal
	stop  bool
	fail  error
	after func(*ActionExecutedContext)
}

func (f *namedFilter) OnActionExecuting(ctx *ActionExecutingContext) error {
	f.log.add(f.name + ":executing")
	if f.fail != nil {
		return f.fail
	}
	if f.stop {
		ctx.Result = Content("stopped by " + f.name)
	}
	return nil
}

func (f *namedFilter) OnActionExecuted(ctx *ActionExecutedContext) error {
	f.log.add(f.name + ":executed")
	if f.after != nil {
		f.after(ctx)
	}
	return nil
}

type greeting interface {
	Text() string
}

type staticGreeting string

func (g staticGreeting) Text() string { return string(g) }

// storeController depends on greeting, so it can only come from the registry.
type storeController struct {
	ActionMap
	greeting greeting
	log      *journal
	declared []Filter
	closed   *int
}

func newStoreController(g greeting) *storeController {
	c := &storeController{ActionMap: ActionMap{}, greeting: g}
	c.Any("Index", func(cc *ControllerContext) (ActionResult, error) {
		if c.log != nil {
			c.log.add("action")
		}
		return Content(c.greeting.Text()), nil
	})
	c.Handle(http.MethodGet, "Details", func(cc *ControllerContext) (ActionResult, error) {
		id, err := cc.IntParam("id")
		if err != nil {
			return nil, err
		}
		return JSON(map[string]int{"id": id}), nil
	})
	c.Any("Boom", func(cc *ControllerContext) (ActionResult, error) {
		return nil, errors.New("boom")
	})
	c.Any("Page", func(cc *ControllerContext) (ActionResult, error) {
		return View(map[string]string{"greeting": c.greeting.Text()}), nil
	})
	return c
}

func (c *storeController) DeclaredFilters() []Filter { return c.declared }

func (c *storeController) Close() error {
	if c.closed != nil {
		*c.closed++
	}
	return nil
}

type homeController struct {
	ActionMap
}

func newHomeController(*RequestContext) (Controller, error) {
	c := &homeController{ActionMap: ActionMap{}}
	c.Any("Index", func(*ControllerContext) (ActionResult, error) {
		return Content("home"), nil
	})
	return c, nil
}

func controllerType() reflect.Type { return container.Of[Controller]() }

func newTestRegistry(t *testing.T) *container.Registry {
	t.Helper()
	reg := container.NewRegistry(container.WithLogger(zap.NewNop()))
	require.NoError(t, reg.Register(controllerType(), "Store",
		container.Constructor(newStoreController), container.Transient))
	require.NoError(t, reg.Register(container.Of[greeting](), "",
		container.Instance(staticGreeting("welcome")), container.Singleton))
	return reg
}

func defaultFactory() *DefaultControllerFactory {
	return NewDefaultControllerFactory().Add("Home", newHomeController)
}

func rc(path string) *RequestContext {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return &RequestContext{Request: req, Route: ParseRoute(path)}
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		path string
		want RouteData
	}{
		{"/", RouteData{Controller: "Home", Action: "Index"}},
		{"/Store", RouteData{Controller: "Store", Action: "Index"}},
		{"/Store/Browse", RouteData{Controller: "Store", Action: "Browse"}},
		{"/Store/Details/5/", RouteData{Controller: "Store", Action: "Details", ID: "5"}},
		{"/a/b/c/d", RouteData{Controller: "a", Action: "b", ID: "c"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRoute(tt.path), tt.path)
	}
}

func TestActionMap(t *testing.T) {
	m := ActionMap{}
	m.Handle(http.MethodGet, "Create", func(*ControllerContext) (ActionResult, error) { return Content("get"), nil })
	m.Handle(http.MethodPost, "Create", func(*ControllerContext) (ActionResult, error) { return Content("post"), nil })
	m.Any("Index", func(*ControllerContext) (ActionResult, error) { return Content("any"), nil })

	fn, ok := m.Action("post", "create")
	require.True(t, ok)
	res, _ := fn(nil)
	assert.Equal(t, "post", res.(*ContentResult).Content)

	_, ok = m.Action(http.MethodDelete, "Index")
	assert.True(t, ok)
	_, ok = m.Action(http.MethodPut, "Create")
	assert.False(t, ok)

	name, ok := m.ActionName(http.MethodPost, "CREATE")
	require.True(t, ok)
	assert.Equal(t, "Create", name)
	name, ok = m.ActionName(http.MethodGet, "index")
	require.True(t, ok)
	assert.Equal(t, "Index", name)
}

func TestDefaultControllerFactory(t *testing.T) {
	f := defaultFactory()

	c, err := f.CreateController(rc("/home"), "HOMECONTROLLER")
	require.NoError(t, err)
	assert.IsType(t, &homeController{}, c)

	name, ok := f.ControllerName("homecontroller")
	require.True(t, ok)
	assert.Equal(t, "Home", name)
	assert.True(t, SameController("StoreManager", "storemanagerController"))
	assert.False(t, SameController("StoreManager", "Store"))

	_, err = f.CreateController(rc("/nope"), "Nope")
	assert.ErrorIs(t, err, ErrControllerNotFound)
	assert.Equal(t, SessionStateDefault, f.GetControllerSessionBehavior(nil, "Home"))
}

func TestContainerControllerFactory(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Freeze())

	var mu sync.Mutex
	outcomes := map[string]container.Outcome{}
	observer := func(_ reflect.Type, q string, o container.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		outcomes[q] = o
	}
	f := NewContainerControllerFactory(reg, defaultFactory(), zap.NewNop(), container.WithObserver(observer))

	t.Run("registered controller comes from the registry", func(t *testing.T) {
		c, err := f.CreateController(rc("/store"), "store")
		require.NoError(t, err)
		sc, ok := c.(*storeController)
		require.True(t, ok)
		assert.Equal(t, "welcome", sc.greeting.Text())
		assert.Equal(t, container.OutcomePrimary, outcomes["store"])
	})

	t.Run("unregistered controller falls back", func(t *testing.T) {
		c, err := f.CreateController(rc("/"), "Home")
		require.NoError(t, err)
		assert.IsType(t, &homeController{}, c)
		assert.Equal(t, container.OutcomeFallback, outcomes["Home"])
	})

	t.Run("unknown everywhere is not found", func(t *testing.T) {
		_, err := f.CreateController(rc("/missing"), "Missing")
		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
		assert.Equal(t, "controller Missing not found", appErr.Message)
		var rfe *container.ResolutionFailedError
		assert.ErrorAs(t, err, &rfe)
		assert.Equal(t, container.OutcomeFailed, outcomes["Missing"])
	})

	t.Run("each resolution is a fresh transient", func(t *testing.T) {
		a, err := f.CreateController(rc("/store"), "Store")
		require.NoError(t, err)
		b, err := f.CreateController(rc("/store"), "Store")
		require.NoError(t, err)
		assert.NotSame(t, a, b)
	})
}

func TestContainerControllerFactory_ConstructionErrorDoesNotFallBack(t *testing.T) {
	reg := container.NewRegistry()
	require.NoError(t, reg.Register(controllerType(), "Home",
		container.Constructor(func() (Controller, error) { return nil, errors.New("db down") }), container.Transient))
	require.NoError(t, reg.Freeze())

	f := NewContainerControllerFactory(reg, defaultFactory(), nil)
	_, err := f.CreateController(rc("/"), "Home")
	require.Error(t, err)

	var ce *container.ConstructionError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusInternalServerError, apperrors.GetAppError(err).HTTPStatus)
}

func TestContainerControllerFactory_ReleaseTearsDown(t *testing.T) {
	closed := 0
	reg := container.NewRegistry()
	require.NoError(t, reg.Register(controllerType(), "Store", container.Constructor(func() Controller {
		c := newStoreController(staticGreeting("x"))
		c.closed = &closed
		return c
	}), container.Transient))
	shared := newStoreController(staticGreeting("shared"))
	shared.closed = &closed
	require.NoError(t, reg.Register(controllerType(), "Shared", container.Instance(shared), container.Singleton))
	require.NoError(t, reg.Freeze())

	f := NewContainerControllerFactory(reg, defaultFactory(), nil)

	c, err := f.CreateController(rc("/store"), "Store")
	require.NoError(t, err)
	require.NoError(t, f.ReleaseController(c))
	assert.Equal(t, 1, closed)

	s, err := f.CreateController(rc("/shared"), "shared")
	require.NoError(t, err)
	require.NoError(t, f.ReleaseController(s))
	assert.Equal(t, 1, closed, "registry-owned instances are not released")
}

func TestFilterProviders_Ordering(t *testing.T) {
	reg := container.NewRegistry()
	log := &journal{}
	trace := &namedFilter{name: "trace", log: log}
	audit := &namedFilter{name: "audit", log: log}
	require.NoError(t, reg.Register(container.Of[ActionFilter](), "Trace", container.Instance(trace), container.Singleton))
	require.NoError(t, reg.Register(container.Of[ActionFilter](), "Audit", container.Instance(audit), container.Singleton))
	require.NoError(t, reg.Freeze())

	globals := NewGlobalFilterCollection()
	handleError := &HandleErrorFilter{}
	globals.Add(handleError)

	first := &namedFilter{name: "first", log: log}
	second := &namedFilter{name: "second", log: log}
	ctrl := newStoreController(staticGreeting("x"))
	ctrl.declared = []Filter{{Instance: second, Order: 2}, {Instance: first, Order: 1}}
	cc := &ControllerContext{Controller: ctrl}

	providers := FilterProviders{globals, ControllerFilterProvider{}, NewContainerFilterProvider(reg)}
	filters, err := providers.GetFilters(cc, ActionDescriptor{})
	require.NoError(t, err)
	require.Len(t, filters, 5)

	assert.Same(t, trace, filters[0].Instance)
	assert.Same(t, audit, filters[1].Instance)
	assert.Equal(t, ScopeFirst, filters[0].Scope)
	assert.Equal(t, DefaultOrder, filters[0].Order)
	assert.Same(t, handleError, filters[2].Instance)
	assert.Same(t, first, filters[3].Instance)
	assert.Equal(t, ScopeController, filters[3].Scope)
	assert.Same(t, second, filters[4].Instance)
}

func TestContainerFilterProvider_FailureAborts(t *testing.T) {
	reg := container.NewRegistry()
	require.NoError(t, reg.Register(container.Of[ActionFilter](), "Broken",
		container.Constructor(func() (ActionFilter, error) { return nil, errors.New("no log store") }), container.Transient))
	require.NoError(t, reg.Freeze())

	_, err := NewContainerFilterProvider(reg).GetFilters(&ControllerContext{}, ActionDescriptor{})
	var ce *container.ConstructionError
	assert.ErrorAs(t, err, &ce)
}

type testPage struct {
	name     string
	greeting greeting
}

func newTestPage(name string, g greeting) *testPage {
	return &testPage{name: name, greeting: g}
}

func (p *testPage) Render(_ *ControllerContext, model interface{}) (*PageDocument, error) {
	return &PageDocument{View: p.name, Message: p.greeting.Text(), Model: model}, nil
}

func TestCustomViewPageActivator(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Register(container.Of[ViewPage](), "Store/Page",
		container.ConstructorWith(newTestPage, "Store/Page"), container.Transient))
	require.NoError(t, reg.Register(container.Of[ViewPageActivator](), "",
		container.ConstructorWith(NewCustomViewPageActivator, reg), container.Transient))
	require.NoError(t, reg.Freeze())

	activator := NewCustomViewPageActivator(reg)
	page, err := activator.Create(nil, "Store/Page")
	require.NoError(t, err)
	doc, err := page.Render(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "welcome", doc.Message)

	page, err = activator.Create(nil, "Store/Other")
	require.NoError(t, err)
	assert.IsType(t, &BasicPage{}, page)

	engine := NewViewEngine(NewContainerDependencyResolver(reg, NewDefaultDependencyResolver(), nil), nil)
	page, err = engine.FindView(nil, "Store/Page")
	require.NoError(t, err)
	assert.IsType(t, &testPage{}, page)
}

func TestDependencyResolvers(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Register(container.Of[FilterProvider](), "FilterProvider",
		container.Instance(NewContainerFilterProvider(reg)), container.Singleton))
	require.NoError(t, reg.Freeze())

	inner := NewDefaultDependencyResolver()
	inner.Set(container.Of[FilterProvider](), func() any { return FilterProviderFunc(func(*ControllerContext, ActionDescriptor) ([]Filter, error) { return nil, nil }) })
	r := NewContainerDependencyResolver(reg, inner, nil)

	g, err := r.GetService(container.Of[greeting]())
	require.NoError(t, err)
	assert.Equal(t, "welcome", g.(greeting).Text())

	a, err := r.GetService(container.Of[ViewPageActivator]())
	require.NoError(t, err)
	assert.IsType(t, DefaultViewPageActivator{}, a)

	providers, err := r.GetServices(container.Of[FilterProvider]())
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.IsType(t, &ContainerFilterProvider{}, providers[0])

	_, err = r.GetService(container.Of[ControllerFactory]())
	var rfe *container.ResolutionFailedError
	assert.ErrorAs(t, err, &rfe)
}

type pipeline struct {
	handler *Handler
	log     *journal
	reg     *container.Registry
}

func newPipeline(t *testing.T, filters ...*namedFilter) *pipeline {
	t.Helper()
	log := &journal{}
	reg := container.NewRegistry()
	require.NoError(t, reg.Register(controllerType(), "Store", container.Constructor(func(g greeting) Controller {
		c := newStoreController(g)
		c.log = log
		return c
	}), container.Transient))
	require.NoError(t, reg.Register(container.Of[greeting](), "", container.Instance(staticGreeting("welcome")), container.Singleton))
	for _, f := range filters {
		f.log = log
		require.NoError(t, reg.Register(container.Of[ActionFilter](), f.name, container.Instance(f), container.Singleton))
	}
	require.NoError(t, reg.Register(container.Of[FilterProvider](), "FilterProvider",
		container.Instance(NewContainerFilterProvider(reg)), container.Singleton))
	require.NoError(t, reg.Register(container.Of[ViewPage](), "Store/Page",
		container.ConstructorWith(newTestPage, "Store/Page"), container.Transient))
	require.NoError(t, reg.Register(container.Of[ViewPageActivator](), "",
		container.ConstructorWith(NewCustomViewPageActivator, reg), container.Transient))
	require.NoError(t, reg.Freeze())

	globals := NewGlobalFilterCollection()
	globals.Add(&HandleErrorFilter{})
	factory := NewContainerControllerFactory(reg, defaultFactory(), nil)
	h := NewHandler(NewControllerBuilder(factory),
		NewContainerDependencyResolver(reg, NewDefaultDependencyResolver(), nil),
		apperrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop(),
		WithGlobalFilters(globals))
	return &pipeline{handler: h, log: log, reg: reg}
}

func (p *pipeline) do(method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	p.handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHandler_FilterOrder(t *testing.T) {
	p := newPipeline(t, &namedFilter{name: "a"}, &namedFilter{name: "b"})

	rec := p.do(http.MethodGet, "/Store")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "welcome", rec.Body.String())
	assert.Equal(t, []string{"a:executing", "b:executing", "action", "b:executed", "a:executed"}, p.log.all())
}

func TestHandler_ShortCircuit(t *testing.T) {
	p := newPipeline(t, &namedFilter{name: "a"}, &namedFilter{name: "b", stop: true}, &namedFilter{name: "c"})

	rec := p.do(http.MethodGet, "/store/index")
	assert.Equal(t, "stopped by b", rec.Body.String())
	assert.Equal(t, []string{"a:executing", "b:executing", "a:executed"}, p.log.all())
}

func TestHandler_FilterErrorAbortsAction(t *testing.T) {
	p := newPipeline(t, &namedFilter{name: "a", fail: apperrors.NewDatabaseError("append action log", errors.New("down"))})

	rec := p.do(http.MethodGet, "/Store")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, p.log.all(), "action")

	var doc PageDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Shared/Error", doc.View)
}

func TestHandler_ExecutedFilterCanHandleError(t *testing.T) {
	recoverFilter := &namedFilter{name: "recover", after: func(ctx *ActionExecutedContext) {
		if ctx.Err != nil {
			ctx.Err = nil
			ctx.Result = Content("recovered")
		}
	}}
	p := newPipeline(t, recoverFilter)

	rec := p.do(http.MethodGet, "/Store/Boom")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "recovered", rec.Body.String())
}

func TestHandler_ErrorsAndFallback(t *testing.T) {
	p := newPipeline(t)

	rec := p.do(http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "home", rec.Body.String())

	rec = p.do(http.MethodGet, "/Nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "controller Nope not found")

	rec = p.do(http.MethodGet, "/Store/Missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = p.do(http.MethodGet, "/Store/Details/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "validation errors bypass the error view")

	rec = p.do(http.MethodPost, "/Store/Details/3")
	assert.Equal(t, http.StatusNotFound, rec.Code, "Details only answers GET")

	rec = p.do(http.MethodGet, "/Store/Details/3")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"id":3`))
}

func TestHandler_ViewResult(t *testing.T) {
	p := newPipeline(t)

	rec := p.do(http.MethodGet, "/Store/Page")
	require.Equal(t, http.StatusOK, rec.Code)
	var doc PageDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Store/Page", doc.View)
	assert.Equal(t, map[string]interface{}{"greeting": "welcome"}, doc.Model)
}

func TestHandler_CanonicalNames(t *testing.T) {
	p := newPipeline(t)

	for _, path := range []string{"/Store/Page", "/store/page", "/StoreController/PAGE", "/storecontroller/page"} {
		rec := p.do(http.MethodGet, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		var doc PageDocument
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), path)
		assert.Equal(t, "Store/Page", doc.View, path)
		assert.Equal(t, "welcome", doc.Message, path)
	}

	rec := p.do(http.MethodGet, "/homecontroller/INDEX")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "home", rec.Body.String())
}

type auditStore interface {
	Append(entry string)
}

func TestHandler_FilterResolutionFailureIsServerError(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Register(container.Of[ActionFilter](), "Audit",
		container.Constructor(func(auditStore) ActionFilter { return &namedFilter{name: "audit", log: &journal{}} }),
		container.Transient))
	require.NoError(t, reg.Register(container.Of[FilterProvider](), "FilterProvider",
		container.Instance(NewContainerFilterProvider(reg)), container.Singleton))
	require.NoError(t, reg.Freeze())

	h := NewHandler(NewControllerBuilder(NewContainerControllerFactory(reg, defaultFactory(), nil)),
		NewContainerDependencyResolver(reg, NewDefaultDependencyResolver(), nil),
		apperrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Store", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to gather action filters")
	assert.NotContains(t, rec.Body.String(), "not found")
}
