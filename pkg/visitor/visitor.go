// Package visitor defines the value-marshalling contract used by object
// property accessors, and the in-memory and text visitors the runtime and
// its tools rely on.
//
// A Visitor moves one scalar across the property boundary. Input visitors
// decode: they write a value into the pointer they are handed. Output
// visitors encode: they read the value the pointer holds. Property
// accessors call the same method in both directions and never need to know
// which kind of visitor they were given.
package visitor

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"
)

// Visitor transports a single named scalar.
type Visitor interface {
	VisitString(name string, v *string) error
	VisitBool(name string, v *bool) error
	VisitInt(name string, v *int64) error
}

// Visitor errors.
var (
	ErrInvalidType = errors.New("invalid parameter type")
	ErrInvalidText = errors.New("invalid value text")
)

// Output captures the last value visited.
type Output struct {
	value any
}

// NewOutput creates an empty output visitor.
func NewOutput() *Output {
	return &Output{}
}

func (o *Output) VisitString(name string, v *string) error {
	o.value = *v
	return nil
}

func (o *Output) VisitBool(name string, v *bool) error {
	o.value = *v
	return nil
}

func (o *Output) VisitInt(name string, v *int64) error {
	o.value = *v
	return nil
}

// Value returns the captured value, or nil if nothing was visited.
func (o *Output) Value() any {
	return o.value
}

// Input supplies a single Go value. The kind of the value must match the
// kind the accessor asks for; integers of any width are accepted by
// VisitInt.
type Input struct {
	value any
}

// NewInput creates an input visitor that supplies value.
func NewInput(value any) *Input {
	return &Input{value: value}
}

func (in *Input) VisitString(name string, v *string) error {
	s, ok := in.value.(string)
	if !ok {
		return fmt.Errorf("%w: %s expects string, got %T", ErrInvalidType, name, in.value)
	}
	*v = s
	return nil
}

func (in *Input) VisitBool(name string, v *bool) error {
	b, ok := in.value.(bool)
	if !ok {
		return fmt.Errorf("%w: %s expects bool, got %T", ErrInvalidType, name, in.value)
	}
	*v = b
	return nil
}

func (in *Input) VisitInt(name string, v *int64) error {
	switch n := in.value.(type) {
	case int:
		*v = int64(n)
	case int8:
		*v = int64(n)
	case int16:
		*v = int64(n)
	case int32:
		*v = int64(n)
	case int64:
		*v = n
	case uint8:
		*v = int64(n)
	case uint16:
		*v = int64(n)
	case uint32:
		*v = int64(n)
	default:
		return fmt.Errorf("%w: %s expects int, got %T", ErrInvalidType, name, in.value)
	}
	return nil
}

// StringInput decodes scalars from their text form, as typed on a command
// line or written in a machine description.
type StringInput struct {
	raw string
}

// NewStringInput creates an input visitor that parses raw on demand.
func NewStringInput(raw string) *StringInput {
	return &StringInput{raw: raw}
}

func (in *StringInput) VisitString(name string, v *string) error {
	*v = in.raw
	return nil
}

func (in *StringInput) VisitBool(name string, v *bool) error {
	b, err := cast.ToBoolE(in.raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %q is not a boolean", ErrInvalidText, name, in.raw)
	}
	*v = b
	return nil
}

func (in *StringInput) VisitInt(name string, v *int64) error {
	n, err := cast.ToInt64E(in.raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidText, name, in.raw)
	}
	*v = n
	return nil
}
