package mvc

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"

	"musicstore/pkg/container"
	apperrors "musicstore/pkg/errors"
)

// ErrControllerNotFound is returned by DefaultControllerFactory for names it
// does not know.
var ErrControllerNotFound = errors.New("controller not found")

// SessionStateBehavior tells the host how a controller uses session state.
type SessionStateBehavior int

const (
	SessionStateDefault SessionStateBehavior = iota
	SessionStateRequired
	SessionStateReadOnly
	SessionStateDisabled
)

// ControllerFactory creates and releases controllers by name.
type ControllerFactory interface {
	CreateController(rc *RequestContext, name string) (Controller, error)
	ReleaseController(c Controller) error
	GetControllerSessionBehavior(rc *RequestContext, name string) SessionStateBehavior
}

// ControllerNamer is implemented by factories that know the registered
// spelling of controller names.
type ControllerNamer interface {
	ControllerName(name string) (string, bool)
}

// ControllerConstructor builds a controller for a request.
type ControllerConstructor func(rc *RequestContext) (Controller, error)

// DefaultControllerFactory activates controllers from a fixed name table.
// Names match case-insensitively, with or without the "Controller" suffix.
type DefaultControllerFactory struct {
	mu    sync.RWMutex
	table map[string]defaultEntry
}

type defaultEntry struct {
	name string
	ctor ControllerConstructor
}

func NewDefaultControllerFactory() *DefaultControllerFactory {
	return &DefaultControllerFactory{table: make(map[string]defaultEntry)}
}

func normalizeControllerName(name string) string {
	name = strings.ToLower(name)
	return strings.TrimSuffix(name, "controller")
}

// SameController reports whether a and b resolve to the same controller
// under the factories' matching rules.
func SameController(a, b string) bool {
	return normalizeControllerName(a) == normalizeControllerName(b)
}

// Add registers ctor under name.
func (f *DefaultControllerFactory) Add(name string, ctor ControllerConstructor) *DefaultControllerFactory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.table[normalizeControllerName(name)] = defaultEntry{name: strings.TrimSuffix(name, "Controller"), ctor: ctor}
	return f
}

func (f *DefaultControllerFactory) lookup(name string) (defaultEntry, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.table[normalizeControllerName(name)]
	return e, ok
}

func (f *DefaultControllerFactory) CreateController(rc *RequestContext, name string) (Controller, error) {
	e, ok := f.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrControllerNotFound, name)
	}
	return e.ctor(rc)
}

// ControllerName returns the name ctor was added under.
func (f *DefaultControllerFactory) ControllerName(name string) (string, bool) {
	e, ok := f.lookup(name)
	return e.name, ok
}

// ReleaseController closes controllers that hold resources.
func (f *DefaultControllerFactory) ReleaseController(c Controller) error {
	if closer, ok := c.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (f *DefaultControllerFactory) GetControllerSessionBehavior(*RequestContext, string) SessionStateBehavior {
	return SessionStateDefault
}

// ContainerControllerFactory resolves controllers from the registry, keyed
// by controller name, and falls back to an inner factory for names the
// registry has no registration for.
type ContainerControllerFactory struct {
	registry *container.Registry
	inner    ControllerFactory
	names    map[string]string
	opts     []container.ChainOption
	logger   *zap.Logger
}

// NewContainerControllerFactory indexes the controller registrations of
// registry, so it should be called once registration is complete.
func NewContainerControllerFactory(registry *container.Registry, inner ControllerFactory, logger *zap.Logger, opts ...container.ChainOption) *ContainerControllerFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &ContainerControllerFactory{
		registry: registry,
		inner:    inner,
		names:    make(map[string]string),
		opts:     append([]container.ChainOption{container.WithChainLogger(logger)}, opts...),
		logger:   logger,
	}
	capability := container.Of[Controller]()
	for _, info := range registry.Registrations() {
		if info.Capability == capability && info.Active {
			f.names[normalizeControllerName(info.Qualifier)] = info.Qualifier
		}
	}
	return f
}

func (f *ContainerControllerFactory) qualifier(name string) string {
	if q, ok := f.names[normalizeControllerName(name)]; ok {
		return q
	}
	return name
}

// ControllerName returns the registry qualifier name matches, or asks the
// inner factory.
func (f *ContainerControllerFactory) ControllerName(name string) (string, bool) {
	if q, ok := f.names[normalizeControllerName(name)]; ok {
		return q, true
	}
	if namer, ok := f.inner.(ControllerNamer); ok {
		return namer.ControllerName(name)
	}
	return "", false
}

func (f *ContainerControllerFactory) CreateController(rc *RequestContext, name string) (Controller, error) {
	primary := container.ResolverFunc(func(capability reflect.Type, _ string) (any, error) {
		return f.registry.ResolveOne(capability, f.qualifier(name))
	})
	fallback := container.ResolverFunc(func(reflect.Type, string) (any, error) {
		return f.inner.CreateController(rc, name)
	})

	chain := container.NewChainedResolver(primary, fallback, f.opts...)
	inst, err := chain.Resolve(container.Of[Controller](), name)
	if err != nil {
		return nil, apperrors.NewResolutionError("controller "+name, err)
	}
	c, ok := inst.(Controller)
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Sprintf("controller %s resolved to %T", name, inst))
	}
	return c, nil
}

// ReleaseController hands the controller back to the registry, which
// leaves singletons alone and disposes per-request instances.
func (f *ContainerControllerFactory) ReleaseController(c Controller) error {
	return f.registry.Teardown(c)
}

func (f *ContainerControllerFactory) GetControllerSessionBehavior(*RequestContext, string) SessionStateBehavior {
	return SessionStateDefault
}

// ControllerBuilder holds the factory used by the pipeline.
type ControllerBuilder struct {
	mu      sync.RWMutex
	factory ControllerFactory
}

func NewControllerBuilder(factory ControllerFactory) *ControllerBuilder {
	return &ControllerBuilder{factory: factory}
}

func (b *ControllerBuilder) SetControllerFactory(factory ControllerFactory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factory = factory
}

func (b *ControllerBuilder) GetControllerFactory() ControllerFactory {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.factory
}
