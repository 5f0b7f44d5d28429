package qom

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/qom/pkg/visitor"
)

// Property type tag prefixes for composition properties.
const (
	childPrefix = "child<"
	linkPrefix  = "link<"
)

// Accessor reads or writes a property through v. opaque is the state passed
// to AddProperty.
type Accessor func(o *Object, v visitor.Visitor, opaque any, name string) error

// Release is called once when a property is removed from its object.
type Release func(o *Object, name string, opaque any)

// Property is a named attribute attached to one object.
type Property struct {
	name    string
	typ     string
	get     Accessor
	set     Accessor
	release Release
	opaque  any
}

// PropertyInfo describes a property for introspection.
type PropertyInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Readable bool   `json:"readable"`
	Writable bool   `json:"writable"`
}

// AddProperty appends a property to o. A nil get or set makes the property
// write-only or read-only. Names are unique per object.
func (o *Object) AddProperty(name, typ string, get, set Accessor, release Release, opaque any) error {
	o.checkLive()
	if o.findProperty(name) != nil {
		return fmt.Errorf("%w: %q on %s", ErrPropertyExists, name, o.class.typ.name)
	}
	o.props = append(o.props, &Property{
		name:    name,
		typ:     typ,
		get:     get,
		set:     set,
		release: release,
		opaque:  opaque,
	})
	return nil
}

// DeleteProperty detaches the named property and invokes its release
// callback.
func (o *Object) DeleteProperty(name string) error {
	o.checkLive()
	for i, prop := range o.props {
		if prop.name != name {
			continue
		}
		o.props = append(o.props[:i], o.props[i+1:]...)
		if prop.release != nil {
			prop.release(o, prop.name, prop.opaque)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPropertyNotFound, name)
}

// GetProperty reads the named property into v.
func (o *Object) GetProperty(v visitor.Visitor, name string) error {
	o.checkLive()
	prop := o.findProperty(name)
	if prop == nil {
		return fmt.Errorf("%w: %s", ErrPropertyNotFound, name)
	}
	if prop.get == nil {
		return fmt.Errorf("%w: %s is write-only", ErrPermissionDenied, name)
	}
	return prop.get(o, v, prop.opaque, name)
}

// SetProperty writes the named property from v.
func (o *Object) SetProperty(v visitor.Visitor, name string) error {
	o.checkLive()
	prop := o.findProperty(name)
	if prop == nil {
		return fmt.Errorf("%w: %s", ErrPropertyNotFound, name)
	}
	if prop.set == nil {
		return fmt.Errorf("%w: %s is read-only", ErrPermissionDenied, name)
	}
	return prop.set(o, v, prop.opaque, name)
}

// PropertyType returns the type tag of the named property.
func (o *Object) PropertyType(name string) (string, error) {
	o.checkLive()
	prop := o.findProperty(name)
	if prop == nil {
		return "", fmt.Errorf("%w: %s", ErrPropertyNotFound, name)
	}
	return prop.typ, nil
}

// Properties returns a description of o's properties in insertion order.
func (o *Object) Properties() []PropertyInfo {
	o.checkLive()
	infos := make([]PropertyInfo, len(o.props))
	for i, prop := range o.props {
		infos[i] = PropertyInfo{
			Name:     prop.name,
			Type:     prop.typ,
			Readable: prop.get != nil,
			Writable: prop.set != nil,
		}
	}
	return infos
}

func (o *Object) findProperty(name string) *Property {
	for _, prop := range o.props {
		if prop.name == name {
			return prop
		}
	}
	return nil
}

func (p *Property) isChild() bool {
	return strings.HasPrefix(p.typ, childPrefix)
}

func (p *Property) isLink() bool {
	return strings.HasPrefix(p.typ, linkPrefix)
}

// target returns the object a child or link property designates, or nil.
// A link holding a detached proxy designates nothing.
func (p *Property) target() *Object {
	switch {
	case p.isChild():
		child, _ := p.opaque.(*Object)
		return child
	case p.isLink():
		if slot, ok := p.opaque.(**Object); ok && slot != nil && *slot != nil && !(*slot).detached {
			return *slot
		}
	}
	return nil
}
