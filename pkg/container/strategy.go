package container

import (
	"fmt"
	"reflect"
)

type strategyKind int

const (
	kindConstructor strategyKind = iota
	kindInstance
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Strategy describes how a registration produces its instance. Build one with
// Constructor, ConstructorWith or Instance; an invalid strategy is reported by
// Registry.Register.
type Strategy struct {
	kind strategyKind
	impl reflect.Type
	err  error

	// constructor strategies
	fn     reflect.Value
	bound  []reflect.Value
	deps   []reflect.Type
	hasErr bool

	// instance strategies
	value reflect.Value
}

// Constructor returns a strategy that calls fn with every parameter resolved
// from the registry by its type. fn must return T or (T, error).
func Constructor(fn any) *Strategy {
	return ConstructorWith(fn)
}

// ConstructorWith binds args to the leading parameters of fn and resolves the
// remaining parameters from the registry. It is how a registration receives an
// explicit handle, such as the registry itself.
func ConstructorWith(fn any, args ...any) *Strategy {
	s := &Strategy{kind: kindConstructor}
	if fn == nil {
		s.err = fmt.Errorf("%w: nil constructor", ErrInvalidStrategy)
		return s
	}

	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		s.err = fmt.Errorf("%w: constructor must be a function, got %s", ErrInvalidStrategy, ft)
		return s
	}
	if ft.IsVariadic() {
		s.err = fmt.Errorf("%w: variadic constructor %s", ErrInvalidStrategy, ft)
		return s
	}

	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			s.err = fmt.Errorf("%w: second return value of %s must be error", ErrInvalidStrategy, ft)
			return s
		}
		s.hasErr = true
	default:
		s.err = fmt.Errorf("%w: constructor %s must return T or (T, error)", ErrInvalidStrategy, ft)
		return s
	}

	if len(args) > ft.NumIn() {
		s.err = fmt.Errorf("%w: %d explicit arguments for %s", ErrInvalidStrategy, len(args), ft)
		return s
	}
	for i, arg := range args {
		param := ft.In(i)
		if arg == nil {
			s.bound = append(s.bound, reflect.Zero(param))
			continue
		}
		av := reflect.ValueOf(arg)
		if !av.Type().AssignableTo(param) {
			s.err = fmt.Errorf("%w: argument %d of type %s is not assignable to %s", ErrInvalidStrategy, i, av.Type(), param)
			return s
		}
		s.bound = append(s.bound, av)
	}
	for i := len(args); i < ft.NumIn(); i++ {
		s.deps = append(s.deps, ft.In(i))
	}

	s.fn = fv
	s.impl = ft.Out(0)
	return s
}

// Instance returns a strategy that always yields v.
func Instance(v any) *Strategy {
	s := &Strategy{kind: kindInstance}
	if v == nil {
		s.err = ErrNilInstance
		return s
	}
	rv := reflect.ValueOf(v)
	if isNilValue(rv) {
		s.err = ErrNilInstance
		return s
	}
	s.value = rv
	s.impl = rv.Type()
	return s
}

// Dependencies returns the capabilities the strategy resolves when invoked.
func (s *Strategy) Dependencies() []reflect.Type {
	out := make([]reflect.Type, len(s.deps))
	copy(out, s.deps)
	return out
}

// invoke calls the constructor. A panic inside the constructor is returned as
// an error so the caller can report it as a ConstructionError.
func (s *Strategy) invoke(deps []reflect.Value) (out reflect.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			out = reflect.Value{}
			err = fmt.Errorf("constructor panicked: %v", p)
		}
	}()

	in := make([]reflect.Value, 0, len(s.bound)+len(deps))
	in = append(in, s.bound...)
	in = append(in, deps...)

	results := s.fn.Call(in)
	if s.hasErr && !results[1].IsNil() {
		return reflect.Value{}, results[1].Interface().(error)
	}
	if isNilValue(results[0]) {
		return reflect.Value{}, fmt.Errorf("constructor %s returned nil", s.fn.Type())
	}
	return results[0], nil
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
