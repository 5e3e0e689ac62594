package container

import (
	"reflect"

	"go.uber.org/zap"
)

// Resolver produces an instance for a capability and qualifier.
type Resolver interface {
	ResolveOne(capability reflect.Type, qualifier string) (any, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(capability reflect.Type, qualifier string) (any, error)

func (f ResolverFunc) ResolveOne(capability reflect.Type, qualifier string) (any, error) {
	return f(capability, qualifier)
}

// Outcome describes how a chained resolution ended.
type Outcome string

const (
	OutcomePrimary  Outcome = "primary"
	OutcomeFallback Outcome = "fallback"
	OutcomeFailed   Outcome = "failed"
	OutcomeError    Outcome = "error"
)

// Observer is notified after every chained resolution.
type Observer func(capability reflect.Type, qualifier string, outcome Outcome)

// ChainedResolver asks the primary resolver first and falls back to the
// secondary one only when the primary has nothing registered. Construction
// failures in the primary are returned as they are.
type ChainedResolver struct {
	primary  Resolver
	fallback Resolver
	logger   *zap.Logger
	observer Observer
}

// ChainOption configures a ChainedResolver.
type ChainOption func(*ChainedResolver)

func WithChainLogger(logger *zap.Logger) ChainOption {
	return func(c *ChainedResolver) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithObserver(observer Observer) ChainOption {
	return func(c *ChainedResolver) {
		c.observer = observer
	}
}

// NewChainedResolver builds a resolver chain. Both resolvers are required.
func NewChainedResolver(primary, fallback Resolver, opts ...ChainOption) *ChainedResolver {
	c := &ChainedResolver{
		primary:  primary,
		fallback: fallback,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve runs the chain.
func (c *ChainedResolver) Resolve(capability reflect.Type, qualifier string) (any, error) {
	inst, err := c.primary.ResolveOne(capability, qualifier)
	if err == nil {
		c.observe(capability, qualifier, OutcomePrimary)
		return inst, nil
	}
	if !IsNotRegistered(err) {
		c.observe(capability, qualifier, OutcomeError)
		return nil, err
	}

	c.logger.Debug("primary resolver has no registration, using fallback",
		zap.String("capability", describe(capability, qualifier)),
		zap.Error(err))

	inst, ferr := c.fallback.ResolveOne(capability, qualifier)
	if ferr != nil {
		c.observe(capability, qualifier, OutcomeFailed)
		return nil, &ResolutionFailedError{
			Capability: capability,
			Qualifier:  qualifier,
			Primary:    err,
			Fallback:   ferr,
		}
	}
	c.observe(capability, qualifier, OutcomeFallback)
	return inst, nil
}

// ResolveOne makes a ChainedResolver usable wherever a Resolver is expected,
// including as the primary of another chain.
func (c *ChainedResolver) ResolveOne(capability reflect.Type, qualifier string) (any, error) {
	return c.Resolve(capability, qualifier)
}

func (c *ChainedResolver) observe(capability reflect.Type, qualifier string, outcome Outcome) {
	if c.observer != nil {
		c.observer(capability, qualifier, outcome)
	}
}
