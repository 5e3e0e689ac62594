package container

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	outcomes []Outcome
}

func (r *recorder) observe(_ reflect.Type, _ string, outcome Outcome) {
	r.outcomes = append(r.outcomes, outcome)
}

func fallbackGreeter(calls *int) Resolver {
	return ResolverFunc(func(capability reflect.Type, qualifier string) (any, error) {
		*calls++
		if qualifier == "missing" {
			return nil, errors.New("no such thing")
		}
		return &englishGreeter{name: "fallback"}, nil
	})
}

func TestChainedResolver(t *testing.T) {
	newChain := func(reg *Registry, calls *int, rec *recorder) *ChainedResolver {
		return NewChainedResolver(reg, fallbackGreeter(calls),
			WithChainLogger(zap.NewNop()),
			WithObserver(rec.observe))
	}

	t.Run("primary hit", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(Of[greeter](), "Store", Instance(&englishGreeter{name: "primary"}), Singleton)
		calls, rec := 0, &recorder{}

		g, err := Resolve[greeter](newChain(reg, &calls, rec), "Store")
		require.NoError(t, err)
		assert.Equal(t, "hello primary", g.Greet())
		assert.Zero(t, calls)
		assert.Equal(t, []Outcome{OutcomePrimary}, rec.outcomes)
	})

	t.Run("fallback on not registered", func(t *testing.T) {
		calls, rec := 0, &recorder{}

		g, err := Resolve[greeter](newChain(NewRegistry(), &calls, rec), "Home")
		require.NoError(t, err)
		assert.Equal(t, "hello fallback", g.Greet())
		assert.Equal(t, 1, calls)
		assert.Equal(t, []Outcome{OutcomeFallback}, rec.outcomes)
	})

	t.Run("fallback on missing dependency", func(t *testing.T) {
		reg := NewRegistry()
		reg.MustRegister(Of[greeter](), "Store", Constructor(func(r repo) *service { return &service{repo: r} }), Transient)
		calls, rec := 0, &recorder{}

		g, err := Resolve[greeter](newChain(reg, &calls, rec), "Store")
		require.NoError(t, err)
		assert.Equal(t, "hello fallback", g.Greet())
		assert.Equal(t, 1, calls)
	})

	t.Run("construction error is not masked", func(t *testing.T) {
		boom := errors.New("db down")
		reg := NewRegistry()
		reg.MustRegister(Of[greeter](), "Store", Constructor(func() (greeter, error) { return nil, boom }), Transient)
		calls, rec := 0, &recorder{}

		_, err := newChain(reg, &calls, rec).Resolve(Of[greeter](), "Store")
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		var ce *ConstructionError
		assert.ErrorAs(t, err, &ce)
		var rfe *ResolutionFailedError
		assert.False(t, errors.As(err, &rfe))
		assert.Zero(t, calls)
		assert.Equal(t, []Outcome{OutcomeError}, rec.outcomes)
	})

	t.Run("both fail", func(t *testing.T) {
		calls, rec := 0, &recorder{}

		_, err := newChain(NewRegistry(), &calls, rec).Resolve(Of[greeter](), "missing")
		require.Error(t, err)

		var rfe *ResolutionFailedError
		require.ErrorAs(t, err, &rfe)
		assert.Equal(t, Of[greeter](), rfe.Capability)
		assert.Equal(t, "missing", rfe.Qualifier)
		assert.ErrorIs(t, err, ErrNotRegistered)
		assert.Contains(t, err.Error(), "no such thing")
		assert.Equal(t, []Outcome{OutcomeFailed}, rec.outcomes)
	})

	t.Run("fallback construction error reachable", func(t *testing.T) {
		inner := NewRegistry()
		inner.MustRegister(Of[greeter](), "", Constructor(func() (greeter, error) { return nil, errors.New("inner") }), Transient)

		chain := NewChainedResolver(NewRegistry(), inner)
		_, err := chain.Resolve(Of[greeter](), "")

		var ce *ConstructionError
		assert.ErrorAs(t, err, &ce)
		var rfe *ResolutionFailedError
		assert.ErrorAs(t, err, &rfe)
	})
}

func TestChainedResolver_Nested(t *testing.T) {
	last := ResolverFunc(func(reflect.Type, string) (any, error) {
		return &englishGreeter{name: "last"}, nil
	})
	inner := NewChainedResolver(NewRegistry(), last)
	outer := NewChainedResolver(NewRegistry(), inner)

	g, err := Resolve[greeter](outer, "")
	require.NoError(t, err)
	assert.Equal(t, "hello last", g.Greet())
}
