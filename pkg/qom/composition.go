package qom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/qom/pkg/visitor"
)

// AddChild makes child a component of o under name. The property reads as
// the child's canonical path. o takes a reference on child and becomes its
// parent; adding an object that already has a parent is fatal.
func (o *Object) AddChild(name string, child *Object) error {
	o.checkLive()
	child.checkLive()
	if o.backing != nil {
		fatalf(o.runtime(), ErrInterfaceComposition, "cannot add %q to interface object %s", name, o.id)
	}
	if child.parent != nil {
		fatalf(o.runtime(), ErrAlreadyParented, "cannot add %s as %q: already owned by %s",
			child.id, name, child.parent.id)
	}
	for p := o; p != nil; p = p.parent {
		if p == child {
			fatalf(o.runtime(), ErrOwnershipCycle, "cannot add %s as %q below itself", child.id, name)
		}
	}

	typ := childPrefix + child.class.typ.name + ">"
	if err := o.AddProperty(name, typ, getChildProperty, nil, releaseChildProperty, child); err != nil {
		return err
	}
	child.Ref()
	child.parent = o
	return nil
}

func getChildProperty(o *Object, v visitor.Visitor, opaque any, name string) error {
	child, ok := opaque.(*Object)
	if !ok || child == nil {
		fatalf(o.runtime(), ErrBrokenComposition, "child property %q of %s holds no object", name, o.id)
	}
	path := child.CanonicalPath()
	return v.VisitString(name, &path)
}

func releaseChildProperty(o *Object, name string, opaque any) {
	child, ok := opaque.(*Object)
	if !ok || child == nil {
		return
	}
	child.parent = nil
	child.Unref()
}

// Unparent removes o from its parent's composition, dropping the parent's
// reference. It does nothing if o has no parent.
func (o *Object) Unparent() {
	if o.parent == nil {
		return
	}
	parent := o.parent
	for _, prop := range parent.props {
		if prop.isChild() && prop.opaque == o {
			_ = parent.DeleteProperty(prop.name)
			return
		}
	}
	fatalf(o.runtime(), ErrBrokenComposition, "object %s names parent %s which does not own it",
		o.id, parent.id)
}

// ForeachChild calls fn for each child of o in property order, stopping at
// the first error.
func (o *Object) ForeachChild(fn func(name string, child *Object) error) error {
	o.checkLive()
	props := append([]*Property(nil), o.props...)
	for _, prop := range props {
		child := prop.target()
		if !prop.isChild() || child == nil {
			continue
		}
		if err := fn(prop.name, child); err != nil {
			return err
		}
	}
	return nil
}

// AddLink adds a property that refers to an object of targetType by path.
// slot holds the current target; the property owns one reference on it
// while it is set, and drops it when the link is cleared, retargeted or
// removed.
func (o *Object) AddLink(name, targetType string, slot **Object) error {
	return o.AddProperty(name, linkPrefix+targetType+">",
		getLinkProperty, setLinkProperty, releaseLinkProperty, slot)
}

func getLinkProperty(o *Object, v visitor.Visitor, opaque any, name string) error {
	var path string
	if target := *opaque.(**Object); target != nil && !target.detached {
		path = target.CanonicalPath()
	}
	return v.VisitString(name, &path)
}

// setLinkProperty retargets the link. An empty path clears it. A failed
// resolution leaves the previous target in place.
func setLinkProperty(o *Object, v visitor.Visitor, opaque any, name string) error {
	slot := opaque.(**Object)

	var path string
	if err := v.VisitString(name, &path); err != nil {
		return err
	}

	if path == "" {
		if old := *slot; old != nil {
			*slot = nil
			old.Unref()
		}
		return nil
	}

	typ, err := o.PropertyType(name)
	if err != nil {
		return err
	}
	targetType := strings.TrimSuffix(strings.TrimPrefix(typ, linkPrefix), ">")

	rt := o.runtime()
	target, err := rt.ResolvePathType(path, targetType)
	switch {
	case err == nil:
		target.Ref()
		old := *slot
		*slot = target
		if old != nil {
			old.Unref()
		}
		return nil
	case errors.Is(err, ErrAmbiguousPath):
		return err
	}

	if _, err := rt.ResolvePath(path); err == nil || errors.Is(err, ErrAmbiguousPath) {
		return fmt.Errorf("%w: %s expects %s", ErrInvalidType, name, targetType)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, path)
}

func releaseLinkProperty(o *Object, name string, opaque any) {
	slot := opaque.(**Object)
	if old := *slot; old != nil {
		*slot = nil
		old.Unref()
	}
}
