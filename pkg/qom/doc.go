// Package qom is the object and type runtime that virtual devices, buses and
// ports are built on.
//
// A Runtime holds a registry of types arranged in a single-inheritance
// hierarchy. Each type may bind interface types, which are materialized as
// small proxy objects attached to every instance. Classes are built lazily
// the first time a type is used: a class starts as a copy of its parent's
// class fields, and the type's ClassInit then overrides or extends them.
//
// Instances are reference counted and composed into a tree rooted at a
// "container" object. Every object carries an ordered list of named
// properties; child<T> properties own their target and form the tree, while
// link<T> properties hold a non-owning reference addressed by path. Objects
// are located with absolute paths ("/machine/usb/port1") or with partial
// paths ("port1"), which succeed only when exactly one object in the tree
// matches.
//
// The runtime performs no locking. All calls are expected to come from one
// thread of control at a time. Violations of the ownership and lifetime
// invariants (double unref, abstract instantiation, re-parenting an owned
// object) are programming errors and panic with a *FatalError; conditions a
// caller can provoke at run time (unknown property, unresolvable path) are
// returned as errors.
package qom
