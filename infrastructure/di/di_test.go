package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"musicstore/application/services"
	"musicstore/infrastructure/cache"
	"musicstore/infrastructure/config"
	"musicstore/infrastructure/persistence/memory"
	"musicstore/interfaces/http/controllers"
	"musicstore/interfaces/http/mvc"
	"musicstore/pkg/auth"
	"musicstore/pkg/container"
)

func newRegistry(t *testing.T) (*container.Registry, *memory.ActionLogRepository) {
	t.Helper()
	logs := memory.NewActionLogRepository()
	c := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	reg := container.NewRegistry()
	err := RegisterApplication(reg, AppDeps{
		Catalog:    memory.NewSeededCatalog(),
		ActionLogs: logs,
		Cache:      c,
		Recorder:   services.NewActionRecorder(logs, nil, zap.NewNop()),
		CacheTTL:   time.Minute,
		Welcome:    services.WelcomeMessage{Text: "Welcome", Image: "/img.png"},
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)
	return reg, logs
}

func TestRegisterApplication_Order(t *testing.T) {
	reg, _ := newRegistry(t)
	require.True(t, reg.Frozen())

	infos := reg.Registrations()
	want := []struct {
		capability string
		qualifier  string
	}{
		{container.Of[mvc.Controller]().String(), "Store"},
		{container.Of[services.StoreService]().String(), ""},
		{container.Of[services.MessageService]().String(), ""},
		{container.Of[mvc.ViewPageActivator]().String(), ""},
		{container.Of[mvc.FilterProvider]().String(), "FilterProvider"},
		{container.Of[mvc.ActionFilter]().String(), "LogActionFilter"},
	}
	require.Greater(t, len(infos), len(want))
	for i, w := range want {
		assert.Equal(t, w.capability, infos[i].Capability.String(), "registration %d", i)
		assert.Equal(t, w.qualifier, infos[i].Qualifier, "registration %d", i)
		assert.True(t, infos[i].Active)
	}

	err := reg.Register(container.Of[mvc.Controller](), "Late", container.Constructor(controllers.NewActionLogController), container.Transient)
	assert.Error(t, err)
}

func TestRegisterApplication_Resolves(t *testing.T) {
	reg, _ := newRegistry(t)

	ctrl, err := container.Resolve[mvc.Controller](reg, "Store")
	require.NoError(t, err)
	assert.IsType(t, &controllers.StoreController{}, ctrl)
	require.NoError(t, reg.Teardown(ctrl))

	for _, name := range []string{"StoreManager", "ActionLog"} {
		_, err := container.Resolve[mvc.Controller](reg, name)
		assert.NoError(t, err, name)
	}

	_, err = container.Resolve[mvc.Controller](reg, "Home")
	assert.True(t, container.IsNotRegistered(err))

	first, err := container.Resolve[*services.CatalogManager](reg, "")
	require.NoError(t, err)
	second, err := container.Resolve[*services.CatalogManager](reg, "")
	require.NoError(t, err)
	assert.Same(t, first, second)

	actionFilters, err := container.ResolveAllOf[mvc.ActionFilter](reg)
	require.NoError(t, err)
	assert.Len(t, actionFilters, 1)

	for view := range controllers.PageTitles {
		_, err := container.Resolve[mvc.ViewPage](reg, view)
		assert.NoError(t, err, view)
	}
}

func TestRegisterApplication_MissingRecorder(t *testing.T) {
	reg := container.NewRegistry()
	err := RegisterApplication(reg, AppDeps{
		Catalog:    memory.NewSeededCatalog(),
		ActionLogs: memory.NewActionLogRepository(),
	})
	require.Error(t, err)
	assert.False(t, reg.Frozen())
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.StoreBackend = config.BackendMemory
	cfg.CacheBackend = config.BackendMemory
	cfg.LogLevel = "error"
	cfg.JWTSecret = "test-secret"
	cfg.EnableTracing = false
	return cfg
}

type app struct {
	c *Container
}

func newApp(t *testing.T) *app {
	t.Helper()
	c, cleanup, err := InitializeContainer(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return &app{c: c}
}

func (a *app) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.c.Handler.ServeHTTP(rec, req)
	return rec
}

func TestInitializeContainer_Storefront(t *testing.T) {
	a := newApp(t)

	rec := a.get("/Store/Browse?genre=Rock", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"view":"Store/Browse"`)

	rec = a.get("/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"view":"Home/Index"`)
	assert.Contains(t, rec.Body.String(), "You are welcome")

	for _, path := range []string{"/Store", "/store/index", "/StoreController", "/storecontroller/INDEX"} {
		rec = a.get(path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"view":"Store/Index"`, path)
		assert.Contains(t, rec.Body.String(), `"title":"Store"`, path)
		assert.Contains(t, rec.Body.String(), "You are welcome", path)
	}

	assert.Equal(t, http.StatusNotFound, a.get("/Missing", "").Code)
	assert.Equal(t, http.StatusOK, a.get("/api/albums/1", "").Code)
}

func TestInitializeContainer_ActionLog(t *testing.T) {
	a := newApp(t)
	require.Equal(t, http.StatusOK, a.get("/Store", "").Code)

	entries, err := a.c.Recorder.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Index (Logged By: Custom Action Filter)", entries[0].Action)
	assert.Equal(t, "Index (Logged By: MyNewCustomActionFilter)", entries[1].Action)
	assert.Equal(t, "Index (Logged By: Trace Action Filter)", entries[2].Action)
}

func TestInitializeContainer_StoreManagerRequiresRole(t *testing.T) {
	a := newApp(t)

	assert.Equal(t, http.StatusUnauthorized, a.get("/StoreManager", "").Code)
	assert.Equal(t, http.StatusUnauthorized, a.get("/storemanager/index", "").Code)
	assert.Equal(t, http.StatusUnauthorized, a.get("/StoreManagerController", "").Code)
	assert.Equal(t, http.StatusUnauthorized, a.get("/storemanagercontroller/Delete/1", "").Code)

	customer, err := a.c.Tokens.Issue("u-2", "Customer", "Customer")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, a.get("/StoreManager", customer).Code)

	admin, err := a.c.Tokens.Issue("u-1", "Admin", auth.RoleManager)
	require.NoError(t, err)
	rec := a.get("/StoreManager", admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"view":"StoreManager/Index"`)
}

func TestInitializeContainer_Operational(t *testing.T) {
	a := newApp(t)

	require.NotNil(t, a.c.Catalog)
	genres, err := a.c.Catalog.ListGenres(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, genres)

	assert.Equal(t, http.StatusOK, a.get("/health", "").Code)
	assert.Equal(t, http.StatusOK, a.get("/ready", "").Code)

	a.get("/Store", "")
	rec := a.get("/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "musicstore_resolutions_total"))
	assert.True(t, strings.Contains(body, "musicstore_actions_logged_total"))
}
