package qom

import (
	"fmt"
	"maps"
	"sort"
)

// Class is the per-type record shared by all instances of a type. Its
// fields start as a copy of the parent class's fields; the type's ClassInit
// then overrides or extends them by name.
type Class struct {
	typ    *Type
	size   int
	fields map[string]any
}

// Name returns the name of the class's type.
func (c *Class) Name() string {
	return c.typ.name
}

// Type returns the class's type.
func (c *Class) Type() *Type {
	return c.typ
}

// Parent returns the parent type's class, or nil for a root type.
func (c *Class) Parent() *Class {
	if p := c.typ.parentType(); p != nil {
		return p.materialize()
	}
	return nil
}

// Size returns the materialized class footprint.
func (c *Class) Size() int {
	return c.size
}

// Set stores a class field. It is meant to be called from ClassInit and
// InterfaceInit callbacks.
func (c *Class) Set(name string, v any) {
	c.fields[name] = v
}

// Lookup returns a class field, inherited or own.
func (c *Class) Lookup(name string) (any, bool) {
	v, ok := c.fields[name]
	return v, ok
}

// Fields returns the names of all class fields in sorted order.
func (c *Class) Fields() []string {
	names := make([]string, 0, len(c.fields))
	for name := range c.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClassField returns the named class field as a T.
func ClassField[T any](c *Class, name string) (T, bool) {
	v, ok := c.fields[name].(T)
	return v, ok
}

// materialize builds the class on first use and returns the cached record
// afterwards. The parent class is always complete before this type's
// interfaces are bound and its ClassInit runs.
func (t *Type) materialize() *Class {
	if t.class != nil {
		return t.class
	}
	if t.building {
		fatalf(t.rt, ErrTypeCycle, "type %q is its own ancestor", t.name)
	}

	t.building = true
	var parent *Class
	if p := t.parentType(); p != nil {
		parent = p.materialize()
	}
	t.building = false

	size := t.classSize
	switch {
	case parent == nil && size == 0:
		size = BaseClassSize
	case parent == nil && size < BaseClassSize:
		fatalf(t.rt, ErrClassSize, "type %q declares class size %d, base is %d",
			t.name, size, BaseClassSize)
	case parent != nil && size == 0:
		size = parent.size
	case parent != nil && size < parent.size:
		fatalf(t.rt, ErrClassSize, "type %q declares class size %d, parent %q has %d",
			t.name, size, parent.Name(), parent.size)
	}

	c := &Class{
		typ:    t,
		size:   size,
		fields: make(map[string]any),
	}
	if parent != nil {
		maps.Copy(c.fields, parent.fields)
	}
	t.class = c

	for i := range t.interfaces {
		t.bindInterface(&t.interfaces[i])
	}

	if t.classInit != nil {
		t.classInit(c, t.classData)
	}

	t.rt.log.Debug().Str("type", t.name).Int("size", size).Msg("class materialized")
	t.rt.hooks.ClassMaterialized(t.name)
	return c
}

// bindInterface synthesizes the abstract type "<Owner::Iface>" whose class
// is populated by the binding's init callback. Instances of t get one proxy
// object of this type per binding.
func (t *Type) bindInterface(iface *interfaceImpl) {
	iface.typ = t.rt.RegisterType(TypeInfo{
		Name:         fmt.Sprintf("<%s::%s>", t.name, iface.parent),
		Parent:       iface.parent,
		InstanceSize: BaseObjectSize,
		Abstract:     true,
		ClassInit:    iface.init,
	})
	iface.typ.materialize()

	if !iface.typ.isAncestor(t.rt.ifaceType) {
		fatalf(t.rt, ErrNotInterface, "type %q binds %q which does not descend from %q",
			t.name, iface.parent, TypeInterface)
	}
}
