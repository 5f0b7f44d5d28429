package qom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// requireFatal runs fn and checks that it panics with a *FatalError
// matching want.
func requireFatal(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected fatal panic wrapping %v", want)
		fe, ok := r.(*FatalError)
		require.True(t, ok, "panic value %T (%v) is not *FatalError", r, r)
		require.True(t, errors.Is(fe, want), "fatal error %q does not wrap %q", fe, want)
	}()
	fn()
}

// countingHooks records runtime events per type.
type countingHooks struct {
	registered   map[string]int
	materialized map[string]int
	created      map[string]int
	finalized    map[string]int
}

func newCountingHooks() *countingHooks {
	return &countingHooks{
		registered:   make(map[string]int),
		materialized: make(map[string]int),
		created:      make(map[string]int),
		finalized:    make(map[string]int),
	}
}

func (h *countingHooks) TypeRegistered(name string)    { h.registered[name]++ }
func (h *countingHooks) ClassMaterialized(name string) { h.materialized[name]++ }
func (h *countingHooks) ObjectCreated(name string)     { h.created[name]++ }
func (h *countingHooks) ObjectFinalized(name string)   { h.finalized[name]++ }

type widgetState struct {
	Serial string
}

// newFixtureRuntime registers a small hierarchy:
//
//	device (abstract)
//	├── widget
//	│   └── gadget
//	└── hub   implements plug, socket
//	plug, socket: interfaces
func newFixtureRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	rt := NewRuntime(opts...)
	rt.RegisterType(TypeInfo{
		Name:     "device",
		Abstract: true,
		ClassInit: func(c *Class, _ any) {
			c.Set("desc", "generic device")
		},
	})
	rt.RegisterType(TypeInfo{
		Name:     "widget",
		Parent:   "device",
		NewState: func() any { return &widgetState{} },
	})
	rt.RegisterType(TypeInfo{
		Name:   "gadget",
		Parent: "widget",
		ClassInit: func(c *Class, _ any) {
			c.Set("desc", "gadget")
		},
	})
	rt.RegisterType(TypeInfo{Name: "plug", Parent: TypeInterface, Abstract: true})
	rt.RegisterType(TypeInfo{Name: "socket", Parent: TypeInterface, Abstract: true})
	rt.RegisterType(TypeInfo{
		Name:   "hub",
		Parent: "device",
		Interfaces: []InterfaceInfo{
			{Type: "plug", InterfaceInit: func(c *Class, _ any) { c.Set("pins", 3) }},
			{Type: "socket"},
		},
	})
	return rt
}

// addChild creates an object of typeName and hands ownership to parent
// under name.
func addChild(t *testing.T, rt *Runtime, parent *Object, name, typeName string) *Object {
	t.Helper()
	obj := rt.New(typeName)
	require.NoError(t, parent.AddChild(name, obj))
	obj.Unref()
	return obj
}
