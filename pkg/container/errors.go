package container

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNotRegistered      = errors.New("container: capability not registered")
	ErrCircularDependency = errors.New("container: circular dependency detected")
	ErrInvalidStrategy    = errors.New("container: invalid construction strategy")
	ErrNotAssignable      = errors.New("container: implementation does not satisfy capability")
	ErrTransientInstance  = errors.New("container: pre-built instances cannot use the transient lifetime")
	ErrNilInstance        = errors.New("container: registered instance cannot be nil")
	ErrRegistryFrozen     = errors.New("container: registry is frozen")
)

// NotRegisteredError reports a resolution request with no matching registration.
// It matches ErrNotRegistered with errors.Is.
type NotRegisteredError struct {
	Capability reflect.Type
	Qualifier  string
}

func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("%v: %s", ErrNotRegistered, describe(e.Capability, e.Qualifier))
}

// Is reports whether target is ErrNotRegistered.
func (e *NotRegisteredError) Is(target error) bool {
	return target == ErrNotRegistered
}

// ConstructionError reports a constructor that returned an error or panicked.
// It is never treated as a missing registration.
type ConstructionError struct {
	Capability reflect.Type
	Qualifier  string
	Err        error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("container: construct %s: %v", describe(e.Capability, e.Qualifier), e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// ResolutionFailedError is returned by a ChainedResolver when both the primary
// and the fallback resolver failed.
type ResolutionFailedError struct {
	Capability reflect.Type
	Qualifier  string
	Primary    error
	Fallback   error
}

func (e *ResolutionFailedError) Error() string {
	cause := e.Fallback
	if cause == nil {
		cause = e.Primary
	}
	return fmt.Sprintf("container: resolution failed for %s: %v", describe(e.Capability, e.Qualifier), cause)
}

// Unwrap exposes both causes so errors.As can reach a ConstructionError raised
// by the fallback.
func (e *ResolutionFailedError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

// IsNotRegistered reports whether err means "nothing registered", as opposed to
// a construction failure.
func IsNotRegistered(err error) bool {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return false
	}
	return errors.Is(err, ErrNotRegistered)
}

// describe renders a capability and qualifier as "pkg.Type[qualifier]".
func describe(capability reflect.Type, qualifier string) string {
	name := "<nil>"
	if capability != nil {
		name = capability.String()
	}
	if qualifier == "" {
		return name
	}
	return name + "[" + qualifier + "]"
}
