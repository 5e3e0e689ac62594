package container

import (
	"fmt"
	"reflect"
)

// Of returns the capability for T. T is normally an interface type.
func Of[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve resolves T from r and asserts the result.
func Resolve[T any](r Resolver, qualifier string) (T, error) {
	var zero T
	inst, err := r.ResolveOne(Of[T](), qualifier)
	if err != nil {
		return zero, err
	}
	out, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("%w: resolved %T for %s", ErrNotAssignable, inst, describe(Of[T](), qualifier))
	}
	return out, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](r Resolver, qualifier string) T {
	out, err := Resolve[T](r, qualifier)
	if err != nil {
		panic(err)
	}
	return out
}

// ResolveAllOf resolves every registration of T in registration order.
func ResolveAllOf[T any](reg *Registry) ([]T, error) {
	all, err := reg.ResolveAll(Of[T]())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, inst := range all {
		out = append(out, inst.(T))
	}
	return out, nil
}
