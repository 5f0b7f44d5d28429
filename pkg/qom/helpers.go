package qom

import (
	"fmt"

	"github.com/mesh-intelligence/qom/pkg/visitor"
)

// Scalar property type tags.
const (
	PropertyTypeString = "string"
	PropertyTypeBool   = "bool"
	PropertyTypeInt    = "int"
)

// SetString writes a string to the named property.
func (o *Object) SetString(name, value string) error {
	return o.setScalar(name, value)
}

// GetString reads the named property as a string.
func (o *Object) GetString(name string) (string, error) {
	v, err := o.getScalar(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, not string", ErrInvalidType, name, v)
	}
	return s, nil
}

// SetBool writes a boolean to the named property.
func (o *Object) SetBool(name string, value bool) error {
	return o.setScalar(name, value)
}

// GetBool reads the named property as a boolean.
func (o *Object) GetBool(name string) (bool, error) {
	v, err := o.getScalar(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s is %T, not bool", ErrInvalidType, name, v)
	}
	return b, nil
}

// SetInt writes an integer to the named property.
func (o *Object) SetInt(name string, value int64) error {
	return o.setScalar(name, value)
}

// GetInt reads the named property as an integer.
func (o *Object) GetInt(name string) (int64, error) {
	v, err := o.getScalar(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T, not int", ErrInvalidType, name, v)
	}
	return n, nil
}

// SetLink points the named link property at target, or clears it when
// target is nil. A target outside the composition tree cannot be linked.
func (o *Object) SetLink(name string, target *Object) error {
	var path string
	if target != nil {
		if !target.inTree() {
			return fmt.Errorf("%w: %s is not in the composition tree", ErrNotFound, target.id)
		}
		path = target.CanonicalPath()
	}
	return o.SetString(name, path)
}

// GetLink returns the object the named link property holds, or nil if the
// link is unset. For a link to an interface this is the proxy itself.
func (o *Object) GetLink(name string) (*Object, error) {
	o.checkLive()
	prop := o.findProperty(name)
	if prop == nil {
		return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, name)
	}
	if !prop.isLink() {
		return nil, fmt.Errorf("%w: %s is %s, not a link", ErrInvalidType, name, prop.typ)
	}
	return prop.target(), nil
}

// inTree reports whether o, or the implementation behind a proxy, is
// reachable from the root through child properties.
func (o *Object) inTree() bool {
	if o.freed || o.detached {
		return false
	}
	obj := o
	if obj.backing != nil {
		obj = obj.backing
	}
	root := o.runtime().Root()
	for ; obj != nil; obj = obj.parent {
		if obj == root {
			return true
		}
	}
	return false
}

func (o *Object) setScalar(name string, value any) error {
	return o.SetProperty(visitor.NewInput(value), name)
}

func (o *Object) getScalar(name string) (any, error) {
	out := visitor.NewOutput()
	if err := o.GetProperty(out, name); err != nil {
		return nil, err
	}
	return out.Value(), nil
}

// AddStringProperty adds a "string" property backed by plain functions.
// Either function may be nil.
func (o *Object) AddStringProperty(name string, get func(o *Object) (string, error), set func(o *Object, value string) error) error {
	var getter, setter Accessor
	if get != nil {
		getter = func(o *Object, v visitor.Visitor, _ any, name string) error {
			value, err := get(o)
			if err != nil {
				return err
			}
			return v.VisitString(name, &value)
		}
	}
	if set != nil {
		setter = func(o *Object, v visitor.Visitor, _ any, name string) error {
			var value string
			if err := v.VisitString(name, &value); err != nil {
				return err
			}
			return set(o, value)
		}
	}
	return o.AddProperty(name, PropertyTypeString, getter, setter, nil, nil)
}

// AddBoolProperty adds a "bool" property backed by plain functions.
// Either function may be nil.
func (o *Object) AddBoolProperty(name string, get func(o *Object) (bool, error), set func(o *Object, value bool) error) error {
	var getter, setter Accessor
	if get != nil {
		getter = func(o *Object, v visitor.Visitor, _ any, name string) error {
			value, err := get(o)
			if err != nil {
				return err
			}
			return v.VisitBool(name, &value)
		}
	}
	if set != nil {
		setter = func(o *Object, v visitor.Visitor, _ any, name string) error {
			var value bool
			if err := v.VisitBool(name, &value); err != nil {
				return err
			}
			return set(o, value)
		}
	}
	return o.AddProperty(name, PropertyTypeBool, getter, setter, nil, nil)
}

// AddIntProperty adds an "int" property backed by plain functions.
// Either function may be nil.
func (o *Object) AddIntProperty(name string, get func(o *Object) (int64, error), set func(o *Object, value int64) error) error {
	var getter, setter Accessor
	if get != nil {
		getter = func(o *Object, v visitor.Visitor, _ any, name string) error {
			value, err := get(o)
			if err != nil {
				return err
			}
			return v.VisitInt(name, &value)
		}
	}
	if set != nil {
		setter = func(o *Object, v visitor.Visitor, _ any, name string) error {
			var value int64
			if err := v.VisitInt(name, &value); err != nil {
				return err
			}
			return set(o, value)
		}
	}
	return o.AddProperty(name, PropertyTypeInt, getter, setter, nil, nil)
}
