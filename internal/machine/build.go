package machine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/qom/pkg/qom"
	"github.com/mesh-intelligence/qom/pkg/visitor"
)

var (
	ErrUnknownType  = errors.New("unknown object type")
	ErrAbstractType = errors.New("object type is abstract")
	ErrInvalidSpec  = errors.New("invalid object spec")
)

// Build creates the objects of desc on rt and wires its links. Objects
// whose parent implements hotplug-handler are plugged through it; others
// become plain children. Build stops at the first error and leaves what it
// already created in place.
func Build(rt *qom.Runtime, desc *Description) error {
	for _, spec := range desc.Objects {
		if err := buildObject(rt, spec); err != nil {
			return fmt.Errorf("object %q: %w", spec.Name, err)
		}
	}
	for _, link := range desc.Links {
		if err := buildLink(rt, link); err != nil {
			return fmt.Errorf("link %s.%s: %w", link.Object, link.Property, err)
		}
	}
	return nil
}

func buildObject(rt *qom.Runtime, spec ObjectSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidSpec)
	}
	typ, ok := rt.LookupType(spec.Type)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, spec.Type)
	}
	if typ.IsAbstract() {
		return fmt.Errorf("%w: %q", ErrAbstractType, spec.Type)
	}
	parent, err := rt.ResolvePath(spec.Parent)
	if err != nil {
		return fmt.Errorf("parent: %w", err)
	}

	obj := rt.NewWithType(typ)
	defer obj.Unref()

	if err := setProps(obj, spec.Props); err != nil {
		return err
	}
	if iface, ok := parent.DynamicCast(TypeHotplugHandler); ok && iface.IsInterface() {
		return Plug(iface, spec.Name, obj)
	}
	return parent.AddChild(spec.Name, obj)
}

// setProps applies props in name order so failures are reproducible.
func setProps(obj *qom.Object, props map[string]any) error {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		text, err := cast.ToStringE(props[name])
		if err != nil {
			return fmt.Errorf("%w: property %s: %v", ErrInvalidSpec, name, err)
		}
		if err := obj.SetProperty(visitor.NewStringInput(text), name); err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
	}
	return nil
}

func buildLink(rt *qom.Runtime, link LinkSpec) error {
	obj, err := rt.ResolvePath(link.Object)
	if err != nil {
		return err
	}
	return obj.SetProperty(visitor.NewStringInput(link.Target), link.Property)
}
