package qom

import (
	"fmt"
	"slices"
	"strings"
)

// PathSeparator separates property names in an object path.
const PathSeparator = "/"

// CanonicalPath returns the absolute path of o, built from the child
// property names between the root and o. An interface proxy reports the
// path of its backing object. An object outside the composition tree is
// fatal.
func (o *Object) CanonicalPath() string {
	o.checkLive()
	obj := o
	if obj.backing != nil {
		obj = obj.backing
	}

	root := o.runtime().Root()
	var names []string
	for obj != root {
		parent := obj.parent
		if parent == nil {
			fatalf(o.runtime(), ErrOrphan, "%q object %s has no parent", obj.class.typ.name, obj.id)
		}
		prop := parent.childPropertyFor(obj)
		if prop == nil {
			fatalf(o.runtime(), ErrBrokenComposition, "parent %s has no child property for %s",
				parent.id, obj.id)
		}
		names = append(names, prop.name)
		obj = parent
	}

	slices.Reverse(names)
	return PathSeparator + strings.Join(names, PathSeparator)
}

func (o *Object) childPropertyFor(child *Object) *Property {
	for _, prop := range o.props {
		if prop.isChild() && prop.opaque == child {
			return prop
		}
	}
	return nil
}

// ResolvePath resolves path to an object of any type.
func (rt *Runtime) ResolvePath(path string) (*Object, error) {
	return rt.ResolvePathType(path, "")
}

// ResolvePathType resolves path to an object that casts to typeName. An
// empty or unregistered typeName accepts any object.
//
// An absolute path ("/a/b") is walked from the root one property per
// segment, following child and link properties. A partial path ("a/b") is
// tried as an absolute path rooted at every object of the tree; it resolves
// only if exactly one distinct object matches, and reports
// ErrAmbiguousPath as soon as a second match is found. The empty path is
// the root.
func (rt *Runtime) ResolvePathType(path, typeName string) (*Object, error) {
	root := rt.Root()
	if path == "" {
		return root, nil
	}

	parts := strings.Split(path, PathSeparator)
	if parts[0] == "" {
		obj := resolveAbsolute(root, parts[1:], typeName)
		if obj == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return obj, nil
	}

	obj, ambiguous := resolvePartial(root, parts, typeName)
	if ambiguous {
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousPath, path)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return obj, nil
}

// ResolvePathType resolves path on the default runtime.
func ResolvePathType(path, typeName string) (*Object, error) {
	return Default().ResolvePathType(path, typeName)
}

func resolveAbsolute(parent *Object, parts []string, typeName string) *Object {
	for _, part := range parts {
		if part == "" {
			continue
		}
		prop := parent.findProperty(part)
		if prop == nil {
			return nil
		}
		next := prop.target()
		if next == nil {
			return nil
		}
		parent = next
	}
	obj, ok := parent.DynamicCast(typeName)
	if !ok {
		return nil
	}
	return obj
}

// resolvePartial matches parts at parent and, depth first, at every
// descendant reachable through child properties.
func resolvePartial(parent *Object, parts []string, typeName string) (*Object, bool) {
	obj := resolveAbsolute(parent, parts, typeName)
	for _, prop := range parent.props {
		child := prop.target()
		if !prop.isChild() || child == nil {
			continue
		}
		found, ambiguous := resolvePartial(child, parts, typeName)
		if ambiguous {
			return nil, true
		}
		if found == nil || found == obj {
			continue
		}
		if obj != nil {
			return nil, true
		}
		obj = found
	}
	return obj, false
}
