package mvc

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"musicstore/pkg/container"
)

// DependencyResolver locates framework services. GetService returns an
// error matching container.ErrNotRegistered when nothing provides the
// capability; GetServices returns an empty slice in that case.
type DependencyResolver interface {
	GetService(capability reflect.Type) (any, error)
	GetServices(capability reflect.Type) ([]any, error)
}

// DefaultDependencyResolver serves fixed framework defaults.
type DefaultDependencyResolver struct {
	mu       sync.RWMutex
	services map[reflect.Type][]func() any
}

func NewDefaultDependencyResolver() *DefaultDependencyResolver {
	r := &DefaultDependencyResolver{services: make(map[reflect.Type][]func() any)}
	r.Set(container.Of[ViewPageActivator](), func() any { return DefaultViewPageActivator{} })
	return r
}

// Set adds a factory for capability. GetService uses the last one added.
func (r *DefaultDependencyResolver) Set(capability reflect.Type, factory func() any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[capability] = append(r.services[capability], factory)
}

func (r *DefaultDependencyResolver) GetService(capability reflect.Type) (any, error) {
	r.mu.RLock()
	factories := r.services[capability]
	r.mu.RUnlock()
	if len(factories) == 0 {
		return nil, &container.NotRegisteredError{Capability: capability}
	}
	return factories[len(factories)-1](), nil
}

func (r *DefaultDependencyResolver) GetServices(capability reflect.Type) ([]any, error) {
	r.mu.RLock()
	factories := r.services[capability]
	r.mu.RUnlock()
	out := make([]any, 0, len(factories))
	for _, f := range factories {
		out = append(out, f())
	}
	return out, nil
}

// ContainerDependencyResolver asks the registry first and the inner
// resolver for anything the registry has no registration for.
type ContainerDependencyResolver struct {
	registry *container.Registry
	inner    DependencyResolver
	chain    *container.ChainedResolver
}

func NewContainerDependencyResolver(registry *container.Registry, inner DependencyResolver, logger *zap.Logger, opts ...container.ChainOption) *ContainerDependencyResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := container.ResolverFunc(func(capability reflect.Type, _ string) (any, error) {
		return inner.GetService(capability)
	})
	opts = append([]container.ChainOption{container.WithChainLogger(logger)}, opts...)
	return &ContainerDependencyResolver{
		registry: registry,
		inner:    inner,
		chain:    container.NewChainedResolver(registry, fallback, opts...),
	}
}

func (r *ContainerDependencyResolver) GetService(capability reflect.Type) (any, error) {
	return r.chain.Resolve(capability, "")
}

// GetServices returns the registry's instances followed by the inner
// resolver's.
func (r *ContainerDependencyResolver) GetServices(capability reflect.Type) ([]any, error) {
	out, err := r.registry.ResolveAll(capability)
	if err != nil {
		return nil, err
	}
	more, err := r.inner.GetServices(capability)
	if err != nil {
		return nil, err
	}
	return append(out, more...), nil
}
