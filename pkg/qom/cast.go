package qom

// DynamicCast returns the object viewed as typeName.
//
// A name that matches no registered type is a wildcard and returns o
// unchanged. If o's own type chain contains the target, o is returned. An
// interface proxy is redirected to its backing object before the
// remaining checks, so a proxy can be cast back to its implementing type
// and across to its sibling interfaces. Finally the interface proxies
// attached to the object are scanned and the first match returned.
func (o *Object) DynamicCast(typeName string) (*Object, bool) {
	o.checkLive()
	target, ok := o.runtime().types[typeName]
	if !ok {
		return o, true
	}
	if o.class.typ.isAncestor(target) {
		return o, true
	}

	obj := o
	if o.backing != nil {
		obj = o.backing
		if obj.class.typ.isAncestor(target) {
			return obj, true
		}
	}

	for _, proxy := range obj.ifaces {
		if proxy.class.typ.isAncestor(target) {
			return proxy, true
		}
	}
	return nil, false
}

// MustCast is DynamicCast for call sites where a mismatch is a programming
// error. It is fatal when the cast fails.
func (o *Object) MustCast(typeName string) *Object {
	obj, ok := o.DynamicCast(typeName)
	if !ok {
		fatalf(o.runtime(), ErrNotInstance, "object %s of type %q is not an instance of %q",
			o.id, o.class.typ.name, typeName)
	}
	return obj
}

// IsInterface reports whether o is an interface proxy.
func (o *Object) IsInterface() bool {
	return o.backing != nil || o.detached
}

// Backing returns the implementing object of an interface proxy, or nil for
// an ordinary object or a detached proxy.
func (o *Object) Backing() *Object {
	return o.backing
}

// Detached reports whether o is an interface proxy whose implementing
// object has been finalized. A detached proxy casts only along its own
// type chain and is not part of the composition tree.
func (o *Object) Detached() bool {
	return o.detached
}

// Interfaces returns the interface proxies attached to o.
func (o *Object) Interfaces() []*Object {
	return append([]*Object(nil), o.ifaces...)
}

// DynamicCast returns c if its type chain contains typeName. Unlike the
// object form there is no wildcard: an unknown name never matches.
func (c *Class) DynamicCast(typeName string) (*Class, bool) {
	target, ok := c.typ.rt.types[typeName]
	if !ok {
		return nil, false
	}
	if c.typ.isAncestor(target) {
		return c, true
	}
	return nil, false
}

// MustCast is the fatal form of Class.DynamicCast.
func (c *Class) MustCast(typeName string) *Class {
	cls, ok := c.DynamicCast(typeName)
	if !ok {
		fatalf(c.typ.rt, ErrNotInstance, "class %q is not an instance of %q", c.typ.name, typeName)
	}
	return cls
}
