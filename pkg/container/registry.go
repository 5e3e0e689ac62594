package container

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Disposable is released by Teardown when it does not implement io.Closer.
type Disposable interface {
	Dispose()
}

type key struct {
	capability reflect.Type
	qualifier  string
}

type registration struct {
	capability reflect.Type
	qualifier  string
	strategy   *Strategy
	lifetime   Lifetime
	seq        int

	mu       sync.Mutex
	built    atomic.Bool
	instance reflect.Value
}

// RegistrationInfo is a read-only view of one registration.
type RegistrationInfo struct {
	Sequence       int
	Capability     reflect.Type
	Qualifier      string
	Lifetime       Lifetime
	Strategy       string
	Implementation reflect.Type
	Dependencies   []reflect.Type
	// Active is false when a later registration with the same capability and
	// qualifier shadows this one for single resolution.
	Active bool
}

// Registry maps capabilities to construction strategies and lifetimes.
//
// Registration is expected during single-threaded start-up. After Freeze the
// table is immutable and lookups take no lock; the singleton cache is the only
// state shared between resolving goroutines.
type Registry struct {
	mu           sync.RWMutex
	entries      []*registration
	byKey        map[key]*registration
	byCapability map[reflect.Type][]*registration
	frozen       atomic.Bool

	owned sync.Map

	closeMu     sync.Mutex
	constructed []reflect.Value

	logger *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for construction and teardown diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		byKey:        make(map[key]*registration),
		byCapability: make(map[reflect.Type][]*registration),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a registration. A later registration with the same capability
// and qualifier replaces the earlier one for ResolveOne; ResolveAll sees both.
func (r *Registry) Register(capability reflect.Type, qualifier string, strategy *Strategy, lifetime Lifetime) error {
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	if capability == nil {
		return fmt.Errorf("%w: nil capability", ErrInvalidStrategy)
	}
	if strategy == nil {
		return fmt.Errorf("%w: nil strategy for %s", ErrInvalidStrategy, describe(capability, qualifier))
	}
	if strategy.err != nil {
		return fmt.Errorf("register %s: %w", describe(capability, qualifier), strategy.err)
	}
	if lifetime != Transient && lifetime != Singleton {
		return fmt.Errorf("%w: unknown lifetime %d for %s", ErrInvalidStrategy, lifetime, describe(capability, qualifier))
	}
	if strategy.kind == kindInstance && lifetime == Transient {
		return fmt.Errorf("register %s: %w", describe(capability, qualifier), ErrTransientInstance)
	}
	if !strategy.impl.AssignableTo(capability) {
		return fmt.Errorf("%w: %s does not implement %s", ErrNotAssignable, strategy.impl, describe(capability, qualifier))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return ErrRegistryFrozen
	}

	reg := &registration{
		capability: capability,
		qualifier:  qualifier,
		strategy:   strategy,
		lifetime:   lifetime,
		seq:        len(r.entries),
	}
	if strategy.kind == kindInstance {
		reg.instance = strategy.value
		reg.built.Store(true)
		r.own(strategy.value)
	}

	r.entries = append(r.entries, reg)
	r.byKey[key{capability, qualifier}] = reg
	r.byCapability[capability] = append(r.byCapability[capability], reg)
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// bootstrap code where a failed registration is a programming error.
func (r *Registry) MustRegister(capability reflect.Type, qualifier string, strategy *Strategy, lifetime Lifetime) {
	if err := r.Register(capability, qualifier, strategy, lifetime); err != nil {
		panic(err)
	}
}

// Freeze makes the table immutable after checking that no constructor cycle
// exists among the active registrations.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen.Load() {
		return nil
	}
	if err := r.validateCycles(); err != nil {
		return err
	}
	r.frozen.Store(true)
	r.logger.Debug("registry frozen", zap.Int("registrations", len(r.entries)))
	return nil
}

// Frozen reports whether Freeze has completed.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

func (r *Registry) validateCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*registration]int, len(r.byKey))
	var stack []*registration

	var visit func(reg *registration) error
	visit = func(reg *registration) error {
		switch state[reg] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrCircularDependency, formatPath(append(stack, reg)))
		}
		state[reg] = visiting
		stack = append(stack, reg)
		for _, dep := range reg.strategy.deps {
			next, ok := r.byKey[key{dep, ""}]
			if !ok {
				continue
			}
			if err := visit(next); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[reg] = done
		return nil
	}

	for _, reg := range r.entries {
		if r.byKey[key{reg.capability, reg.qualifier}] != reg {
			continue
		}
		if err := visit(reg); err != nil {
			return err
		}
	}
	return nil
}

// ResolveOne returns an instance for the most recent registration matching
// capability and qualifier exactly.
func (r *Registry) ResolveOne(capability reflect.Type, qualifier string) (any, error) {
	v, err := r.resolve(capability, qualifier, nil)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// ResolveAll returns one instance per registration of capability, regardless
// of qualifier, in registration order. Any failure aborts the whole call.
func (r *Registry) ResolveAll(capability reflect.Type) ([]any, error) {
	regs := r.lookupAll(capability)
	out := make([]any, 0, len(regs))
	for _, reg := range regs {
		v, err := r.activate(reg, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v.Interface())
	}
	return out, nil
}

func (r *Registry) lookup(capability reflect.Type, qualifier string) (*registration, bool) {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}
	reg, ok := r.byKey[key{capability, qualifier}]
	return reg, ok
}

func (r *Registry) lookupAll(capability reflect.Type) []*registration {
	if r.frozen.Load() {
		return r.byCapability[capability]
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	regs := r.byCapability[capability]
	out := make([]*registration, len(regs))
	copy(out, regs)
	return out
}

func (r *Registry) resolve(capability reflect.Type, qualifier string, path []*registration) (reflect.Value, error) {
	reg, ok := r.lookup(capability, qualifier)
	if !ok {
		return reflect.Value{}, &NotRegisteredError{Capability: capability, Qualifier: qualifier}
	}
	return r.activate(reg, path)
}

func (r *Registry) activate(reg *registration, path []*registration) (reflect.Value, error) {
	for _, seen := range path {
		if seen == reg {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrCircularDependency, formatPath(append(path, reg)))
		}
	}

	if reg.lifetime == Transient {
		return r.construct(reg, path)
	}

	if reg.built.Load() {
		return reg.instance, nil
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.built.Load() {
		return reg.instance, nil
	}

	v, err := r.construct(reg, path)
	if err != nil {
		return reflect.Value{}, err
	}
	reg.instance = v
	reg.built.Store(true)
	r.own(v)

	r.closeMu.Lock()
	r.constructed = append(r.constructed, v)
	r.closeMu.Unlock()

	r.logger.Debug("singleton constructed",
		zap.String("capability", describe(reg.capability, reg.qualifier)),
		zap.String("implementation", v.Type().String()))
	return v, nil
}

func (r *Registry) construct(reg *registration, path []*registration) (reflect.Value, error) {
	path = append(path, reg)

	deps := make([]reflect.Value, 0, len(reg.strategy.deps))
	for _, dep := range reg.strategy.deps {
		v, err := r.resolve(dep, "", path)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("resolve dependency %s of %s: %w",
				describe(dep, ""), describe(reg.capability, reg.qualifier), err)
		}
		deps = append(deps, v)
	}

	v, err := reg.strategy.invoke(deps)
	if err != nil {
		return reflect.Value{}, &ConstructionError{Capability: reg.capability, Qualifier: reg.qualifier, Err: err}
	}
	return v, nil
}

// Teardown releases an instance handed out by the registry once its consumer
// is done with it. Singletons and registered instances are owned by the
// registry and are left alone.
func (r *Registry) Teardown(instance any) error {
	if instance == nil {
		return nil
	}
	if r.isOwned(instance) {
		return nil
	}
	return release(instance)
}

// Close releases constructed singletons in reverse construction order. It is
// called once at process shutdown.
func (r *Registry) Close() error {
	r.closeMu.Lock()
	constructed := r.constructed
	r.constructed = nil
	r.closeMu.Unlock()

	var errs []error
	for i := len(constructed) - 1; i >= 0; i-- {
		if err := release(constructed[i].Interface()); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		r.logger.Warn("registry close finished with errors", zap.Int("failed", len(errs)))
	}
	return errors.Join(errs...)
}

// Registrations returns a snapshot of the table in registration order.
func (r *Registry) Registrations() []RegistrationInfo {
	if !r.frozen.Load() {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	out := make([]RegistrationInfo, 0, len(r.entries))
	for _, reg := range r.entries {
		kind := "constructor"
		if reg.strategy.kind == kindInstance {
			kind = "instance"
		}
		out = append(out, RegistrationInfo{
			Sequence:       reg.seq,
			Capability:     reg.capability,
			Qualifier:      reg.qualifier,
			Lifetime:       reg.lifetime,
			Strategy:       kind,
			Implementation: reg.strategy.impl,
			Dependencies:   reg.strategy.Dependencies(),
			Active:         r.byKey[key{reg.capability, reg.qualifier}] == reg,
		})
	}
	return out
}

func (r *Registry) own(v reflect.Value) {
	if v.IsValid() && v.Comparable() {
		r.owned.Store(v.Interface(), struct{}{})
	}
}

func (r *Registry) isOwned(instance any) bool {
	if !reflect.ValueOf(instance).Comparable() {
		return false
	}
	_, ok := r.owned.Load(instance)
	return ok
}

func release(instance any) error {
	switch v := instance.(type) {
	case io.Closer:
		return v.Close()
	case Disposable:
		v.Dispose()
	}
	return nil
}

func formatPath(path []*registration) string {
	parts := make([]string, len(path))
	for i, reg := range path {
		parts[i] = describe(reg.capability, reg.qualifier)
	}
	return strings.Join(parts, " -> ")
}
