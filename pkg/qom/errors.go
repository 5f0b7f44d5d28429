package qom

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/qom/pkg/visitor"
)

// Fatal conditions. These are never returned; they are raised with panic
// wrapped in a *FatalError.
var (
	ErrInvalidTypeInfo      = errors.New("invalid type info")
	ErrTypeExists           = errors.New("type already registered")
	ErrTypeNotFound         = errors.New("type not found")
	ErrParentNotFound       = errors.New("parent type not found")
	ErrTypeCycle            = errors.New("type hierarchy contains a cycle")
	ErrTooManyInterfaces    = errors.New("too many interfaces")
	ErrNotInterface         = errors.New("not an interface type")
	ErrClassSize            = errors.New("class size smaller than parent class")
	ErrInstanceSize         = errors.New("instance size too small")
	ErrAbstractType         = errors.New("cannot instantiate abstract type")
	ErrUninitialized        = errors.New("object is not initialized")
	ErrRefUnderflow         = errors.New("reference count underflow")
	ErrObjectFreed          = errors.New("object already finalized")
	ErrAlreadyParented      = errors.New("object already has a parent")
	ErrOwnershipCycle       = errors.New("object cannot own one of its ancestors")
	ErrInterfaceComposition = errors.New("interface objects cannot own children")
	ErrOrphan               = errors.New("object is not in the composition tree")
	ErrBrokenComposition    = errors.New("parent has no child property for object")
	ErrNotInstance          = errors.New("not an instance of requested type")
)

// Recoverable conditions returned to callers.
var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrPropertyExists   = errors.New("property already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAmbiguousPath    = errors.New("ambiguous path")
	ErrNotFound         = errors.New("object not found")

	// ErrInvalidType reports a value of the wrong kind, or a link target of
	// the wrong type. It is the visitor's sentinel so that errors raised
	// inside accessors match it too.
	ErrInvalidType = visitor.ErrInvalidType
)

// FatalError is the panic value raised when a runtime invariant is broken.
// It unwraps to one of the fatal sentinels above.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// fatalf logs the violation on rt (which may be nil) and panics.
func fatalf(rt *Runtime, sentinel error, format string, args ...any) {
	err := fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
	if rt != nil {
		rt.log.Error().Err(err).Msg("fatal object model violation")
	}
	panic(&FatalError{err: err})
}
