package qom

import (
	"sort"
	"unsafe"
)

// Built-in type names.
const (
	TypeInterface = "interface"
	TypeContainer = "container"
)

// MaxInterfaces bounds the interface bindings a single type may declare.
const MaxInterfaces = 32

// Footprints of the base records. A type's declared sizes may not be
// smaller than these.
const (
	BaseObjectSize = int(unsafe.Sizeof(Object{}))
	BaseClassSize  = int(unsafe.Sizeof(Class{}))
)

// InterfaceInfo binds an interface type to the type declaring it.
type InterfaceInfo struct {
	// Type names the interface type. It must descend from "interface".
	Type string

	// InterfaceInit populates the class of the synthesized binding type.
	InterfaceInit func(c *Class, data any)
}

// TypeInfo describes a type at registration. It is copied by RegisterType.
type TypeInfo struct {
	Name   string
	Parent string

	// InstanceSize and ClassSize are declared footprints. Zero inherits the
	// parent's value (or the base footprint for a root type).
	InstanceSize int
	ClassSize    int

	Abstract   bool
	Interfaces []InterfaceInfo

	ClassInit     func(c *Class, data any)
	ClassFinalize func(c *Class, data any)
	ClassData     any

	// NewState allocates the fields this type adds to each instance. It is
	// called once per instance, after the parent type's state exists.
	NewState         func() any
	InstanceInit     func(o *Object)
	InstanceFinalize func(o *Object)
}

type interfaceImpl struct {
	parent string
	init   func(c *Class, data any)
	typ    *Type
}

// Type is the registered, immutable form of a TypeInfo.
type Type struct {
	rt *Runtime

	name       string
	parentName string
	parent     *Type

	instanceSize int
	classSize    int
	abstract     bool

	classInit        func(c *Class, data any)
	classFinalize    func(c *Class, data any)
	classData        any
	newState         func() any
	instanceInit     func(o *Object)
	instanceFinalize func(o *Object)

	interfaces []interfaceImpl

	class    *Class
	building bool
}

// RegisterType adds info to the registry and returns its handle. A
// duplicate or empty name is fatal.
func (rt *Runtime) RegisterType(info TypeInfo) *Type {
	if info.Name == "" {
		fatalf(rt, ErrInvalidTypeInfo, "type name is empty")
	}
	if _, ok := rt.types[info.Name]; ok {
		fatalf(rt, ErrTypeExists, "registering %q which already exists", info.Name)
	}
	if len(info.Interfaces) > MaxInterfaces {
		fatalf(rt, ErrTooManyInterfaces, "%q declares %d interfaces, limit is %d",
			info.Name, len(info.Interfaces), MaxInterfaces)
	}

	t := &Type{
		rt:               rt,
		name:             info.Name,
		parentName:       info.Parent,
		instanceSize:     info.InstanceSize,
		classSize:        info.ClassSize,
		abstract:         info.Abstract,
		classInit:        info.ClassInit,
		classFinalize:    info.ClassFinalize,
		classData:        info.ClassData,
		newState:         info.NewState,
		instanceInit:     info.InstanceInit,
		instanceFinalize: info.InstanceFinalize,
	}
	for _, iface := range info.Interfaces {
		t.interfaces = append(t.interfaces, interfaceImpl{
			parent: iface.Type,
			init:   iface.InterfaceInit,
		})
	}

	rt.types[t.name] = t
	rt.log.Debug().Str("type", t.name).Str("parent", t.parentName).Msg("type registered")
	rt.hooks.TypeRegistered(t.name)
	return t
}

// LookupType returns the type registered under name.
func (rt *Runtime) LookupType(name string) (*Type, bool) {
	t, ok := rt.types[name]
	return t, ok
}

// Types returns every registered type ordered by name.
func (rt *Runtime) Types() []*Type {
	list := make([]*Type, 0, len(rt.types))
	for _, t := range rt.types {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].name < list[j].name
	})
	return list
}

// ClassByName materializes and returns the class of the named type.
func (rt *Runtime) ClassByName(name string) (*Class, bool) {
	t, ok := rt.types[name]
	if !ok {
		return nil, false
	}
	return t.materialize(), true
}

// ForeachClass materializes every registered type and calls fn with the
// classes that implement implements (any class when empty). Abstract
// classes are skipped unless includeAbstract is set. Classes are visited in
// name order; types registered while iterating are not visited.
func (rt *Runtime) ForeachClass(fn func(c *Class), implements string, includeAbstract bool) {
	for _, t := range rt.Types() {
		c := t.materialize()
		if !includeAbstract && t.abstract {
			continue
		}
		if implements != "" {
			if _, ok := c.DynamicCast(implements); !ok {
				continue
			}
		}
		fn(c)
	}
}

// Name returns the registered type name.
func (t *Type) Name() string {
	return t.name
}

// Parent returns the parent type, or nil for a root type.
func (t *Type) Parent() *Type {
	return t.parentType()
}

// IsAbstract reports whether the type may not be instantiated.
func (t *Type) IsAbstract() bool {
	return t.abstract
}

// Interfaces returns the interface type names bound by this type, in
// declaration order.
func (t *Type) Interfaces() []string {
	names := make([]string, len(t.interfaces))
	for i, iface := range t.interfaces {
		names[i] = iface.parent
	}
	return names
}

// InstanceSize returns the effective instance footprint.
func (t *Type) InstanceSize() int {
	if t.instanceSize != 0 {
		return t.instanceSize
	}
	if p := t.parentType(); p != nil {
		return p.InstanceSize()
	}
	return BaseObjectSize
}

// Class materializes and returns the type's class.
func (t *Type) Class() *Class {
	return t.materialize()
}

// parentType resolves the parent name on first use. A dangling parent name
// is fatal.
func (t *Type) parentType() *Type {
	if t.parent == nil && t.parentName != "" {
		p, ok := t.rt.types[t.parentName]
		if !ok {
			fatalf(t.rt, ErrParentNotFound, "type %q names parent %q", t.name, t.parentName)
		}
		t.parent = p
	}
	return t.parent
}

// isAncestor reports whether target appears on the chain t, t.parent, ...
func (t *Type) isAncestor(target *Type) bool {
	for ; t != nil; t = t.parentType() {
		if t == target {
			return true
		}
	}
	return false
}
