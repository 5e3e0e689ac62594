package di

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"musicstore/application/ports"
	"musicstore/application/services"
	"musicstore/infrastructure/messaging/eventbridge"
	"musicstore/interfaces/http/controllers"
	"musicstore/interfaces/http/filters"
	"musicstore/interfaces/http/mvc"
	"musicstore/pkg/container"
)

// AppDeps are the process-wide objects the registrations are built from.
type AppDeps struct {
	Catalog    ports.CatalogRepository
	ActionLogs ports.ActionLogRepository
	Cache      ports.Cache
	Publisher  ports.EventPublisher
	Recorder   *services.ActionRecorder
	LoggedHook filters.LoggedHook
	CacheTTL   time.Duration
	Welcome    services.WelcomeMessage
	Logger     *zap.Logger
}

type registration struct {
	capability string
	qualifier  string
	register   func() error
}

// RegisterApplication fills reg with the application's registrations and
// freezes it.
func RegisterApplication(reg *container.Registry, deps AppDeps) error {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	hook := deps.LoggedHook
	if hook == nil {
		hook = func(string, string) {}
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = eventbridge.NopPublisher{}
	}
	welcome := deps.Welcome

	steps := []registration{
		{"Controller", "Store", func() error {
			return reg.Register(container.Of[mvc.Controller](), "Store",
				container.Constructor(controllers.NewStoreController), container.Transient)
		}},
		{"StoreService", "", func() error {
			return reg.Register(container.Of[services.StoreService](), "",
				container.Constructor(services.NewCatalogStoreService), container.Transient)
		}},
		{"MessageService", "", func() error {
			return reg.Register(container.Of[services.MessageService](), "",
				container.Instance(&welcome), container.Singleton)
		}},
		{"ViewPageActivator", "", func() error {
			return reg.Register(container.Of[mvc.ViewPageActivator](), "",
				container.ConstructorWith(mvc.NewCustomViewPageActivator, reg), container.Transient)
		}},
		{"FilterProvider", "FilterProvider", func() error {
			return reg.Register(container.Of[mvc.FilterProvider](), "FilterProvider",
				container.Instance(mvc.NewContainerFilterProvider(reg)), container.Singleton)
		}},
		{"ActionFilter", "LogActionFilter", func() error {
			return reg.Register(container.Of[mvc.ActionFilter](), "LogActionFilter",
				container.Instance(filters.NewTraceActionFilter(deps.Recorder, hook, deps.Logger)), container.Singleton)
		}},

		{"Controller", "StoreManager", func() error {
			return reg.Register(container.Of[mvc.Controller](), "StoreManager",
				container.Constructor(controllers.NewStoreManagerController), container.Transient)
		}},
		{"Controller", "ActionLog", func() error {
			return reg.Register(container.Of[mvc.Controller](), "ActionLog",
				container.Constructor(controllers.NewActionLogController), container.Transient)
		}},
		{"CatalogManager", "", func() error {
			return reg.Register(container.Of[*services.CatalogManager](), "",
				container.Constructor(services.NewCatalogManager), container.Singleton)
		}},
	}

	steps = append(steps, viewPages(reg)...)
	steps = append(steps, instances(reg,
		instance[ports.CatalogRepository](deps.Catalog),
		instance[ports.ActionLogRepository](deps.ActionLogs),
		instance[ports.Cache](deps.Cache),
		instance[ports.EventPublisher](publisher),
		instance[filters.Recorder](deps.Recorder),
		instance[filters.LoggedHook](hook),
		instance[services.CacheTTL](services.CacheTTL(deps.CacheTTL)),
		instance[*services.LoadGroup](&services.LoadGroup{}),
		instance[*zap.Logger](deps.Logger),
	)...)

	for _, step := range steps {
		if err := step.register(); err != nil {
			return fmt.Errorf("register %s[%s]: %w", step.capability, step.qualifier, err)
		}
	}
	if err := reg.Freeze(); err != nil {
		return err
	}
	deps.Logger.Info("Registry frozen", zap.Int("registrations", len(reg.Registrations())))
	return nil
}

func viewPages(reg *container.Registry) []registration {
	names := make([]string, 0, len(controllers.PageTitles))
	for name := range controllers.PageTitles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]registration, 0, len(names))
	for _, name := range names {
		name := name
		out = append(out, registration{"ViewPage", name, func() error {
			return reg.Register(container.Of[mvc.ViewPage](), name,
				container.ConstructorWith(controllers.NewLayoutPage, name), container.Transient)
		}})
	}
	return out
}

func instance[T any](v T) func(reg *container.Registry) registration {
	return func(reg *container.Registry) registration {
		capability := container.Of[T]()
		return registration{capability.String(), "", func() error {
			return reg.Register(capability, "", container.Instance(v), container.Singleton)
		}}
	}
}

func instances(reg *container.Registry, items ...func(*container.Registry) registration) []registration {
	out := make([]registration, 0, len(items))
	for _, item := range items {
		out = append(out, item(reg))
	}
	return out
}
