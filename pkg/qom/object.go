package qom

import (
	"github.com/google/uuid"
)

// Object is a live, reference-counted instance of a concrete type.
//
// Objects are usually created with Runtime.New. An Object embedded in a
// larger value may instead be set up in place with Runtime.Initialize, in
// which case it starts with a reference count of zero and the caller takes
// the first reference.
type Object struct {
	class  *Class
	id     string
	ref    int
	freed  bool
	parent *Object

	props []*Property

	// ifaces holds one proxy per interface binding along the type chain,
	// most derived binding first. backing is set only on proxies. A proxy
	// that outlives its backing object is detached: it keeps its own type
	// but no longer reaches the implementation.
	ifaces   []*Object
	backing  *Object
	detached bool

	state map[*Type]any
}

// New allocates an instance of the named type with a reference count of
// one. An unknown or abstract type is fatal.
func (rt *Runtime) New(typeName string) *Object {
	t, ok := rt.types[typeName]
	if !ok {
		fatalf(rt, ErrTypeNotFound, "cannot create object of unknown type %q", typeName)
	}
	return rt.NewWithType(t)
}

// NewWithType allocates an instance of t with a reference count of one.
func (rt *Runtime) NewWithType(t *Type) *Object {
	obj := &Object{}
	rt.Initialize(obj, t)
	obj.ref = 1
	return obj
}

// Initialize sets obj up as a fresh instance of t. Any previous content of
// obj is discarded. The type must be concrete and its instance footprint
// must cover the base object.
func (rt *Runtime) Initialize(obj *Object, t *Type) {
	if t == nil {
		fatalf(rt, ErrTypeNotFound, "cannot initialize object with nil type")
	}
	t.materialize()
	if t.abstract {
		fatalf(rt, ErrAbstractType, "type %q is abstract", t.name)
	}
	size := t.InstanceSize()
	if size < BaseObjectSize {
		fatalf(rt, ErrInstanceSize, "type %q declares instance size %d, base is %d",
			t.name, size, BaseObjectSize)
	}
	if p := t.parentType(); p != nil && size < p.InstanceSize() {
		fatalf(rt, ErrInstanceSize, "type %q declares instance size %d, parent %q has %d",
			t.name, size, p.name, p.InstanceSize())
	}
	rt.initialize(obj, t)
}

// initialize skips the concrete-type checks; interface proxies are
// instances of abstract binding types.
func (rt *Runtime) initialize(obj *Object, t *Type) {
	*obj = Object{
		class: t.materialize(),
		id:    newObjectID(),
	}
	obj.initWithType(t)
	rt.log.Debug().Str("type", t.name).Str("id", obj.id).Msg("object initialized")
	rt.hooks.ObjectCreated(t.name)
}

// initWithType runs the instance setup of each level root first.
func (o *Object) initWithType(t *Type) {
	if p := t.parentType(); p != nil {
		o.initWithType(p)
	}

	for i := range t.interfaces {
		o.attachInterface(&t.interfaces[i])
	}

	if t.newState != nil {
		if o.state == nil {
			o.state = make(map[*Type]any)
		}
		o.state[t] = t.newState()
	}

	if t.instanceInit != nil {
		t.instanceInit(o)
	}
}

func (o *Object) attachInterface(iface *interfaceImpl) {
	proxy := &Object{}
	o.runtime().initialize(proxy, iface.typ)
	proxy.ref = 1
	proxy.backing = o
	o.ifaces = append([]*Object{proxy}, o.ifaces...)
}

// Ref takes a reference.
func (o *Object) Ref() {
	o.checkLive()
	o.ref++
}

// Unref drops a reference. Dropping the last one finalizes the object;
// dropping more references than were taken is fatal.
func (o *Object) Unref() {
	if o.class == nil {
		fatalf(nil, ErrUninitialized, "unref of uninitialized object")
	}
	if o.freed || o.ref <= 0 {
		fatalf(o.runtime(), ErrRefUnderflow, "unref of %q object %s with no references",
			o.class.typ.name, o.id)
	}
	o.ref--
	if o.ref == 0 {
		o.finalize()
		o.freed = true
	}
}

// RefCount returns the number of outstanding references.
func (o *Object) RefCount() int {
	return o.ref
}

// Finalized reports whether the last reference has been dropped.
func (o *Object) Finalized() bool {
	return o.freed
}

// finalize tears the object down leaf type first, then detaches it from
// its parent and drops all remaining properties.
func (o *Object) finalize() {
	t := o.class.typ
	o.deinit(t)
	o.Unparent()
	for len(o.props) > 0 {
		prop := o.props[0]
		o.props = o.props[1:]
		if prop.release != nil {
			prop.release(o, prop.name, prop.opaque)
		}
	}
	o.backing = nil
	o.state = nil

	rt := o.runtime()
	rt.log.Debug().Str("type", t.name).Str("id", o.id).Msg("object finalized")
	rt.hooks.ObjectFinalized(t.name)
}

func (o *Object) deinit(t *Type) {
	if t.instanceFinalize != nil {
		t.instanceFinalize(o)
	}

	for len(o.ifaces) > 0 {
		proxy := o.ifaces[0]
		o.ifaces = o.ifaces[1:]
		proxy.Unref()
		if !proxy.freed {
			proxy.backing = nil
			proxy.detached = true
		}
	}

	if p := t.parentType(); p != nil {
		o.deinit(p)
	}
}

// ID returns the identifier assigned when the object was initialized.
func (o *Object) ID() string {
	return o.id
}

// Class returns the object's class.
func (o *Object) Class() *Class {
	o.checkLive()
	return o.class
}

// TypeName returns the name of the object's type.
func (o *Object) TypeName() string {
	o.checkLive()
	return o.class.typ.name
}

// Parent returns the owning object, or nil if the object is not a child.
func (o *Object) Parent() *Object {
	return o.parent
}

// State returns the instance fields declared by the named type, or nil if
// that type is not on the object's chain or declares none.
func (o *Object) State(typeName string) any {
	o.checkLive()
	t, ok := o.runtime().types[typeName]
	if !ok {
		return nil
	}
	return o.state[t]
}

// StateOf returns the instance fields declared by the named type as a T.
func StateOf[T any](o *Object, typeName string) (T, bool) {
	v, ok := o.State(typeName).(T)
	return v, ok
}

func (o *Object) runtime() *Runtime {
	return o.class.typ.rt
}

func (o *Object) checkLive() {
	if o.class == nil {
		fatalf(nil, ErrUninitialized, "use of uninitialized object")
	}
	if o.freed {
		fatalf(o.runtime(), ErrObjectFreed, "use of finalized %q object %s", o.class.typ.name, o.id)
	}
}

// newObjectID generates a UUID v7 for object IDs.
func newObjectID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
