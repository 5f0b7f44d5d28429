package qom

import (
	"github.com/rs/zerolog"
)

// Hooks observes runtime events. Implementations must not call back into
// the runtime.
type Hooks interface {
	TypeRegistered(name string)
	ClassMaterialized(name string)
	ObjectCreated(typeName string)
	ObjectFinalized(typeName string)
}

type nopHooks struct{}

func (nopHooks) TypeRegistered(string)    {}
func (nopHooks) ClassMaterialized(string) {}
func (nopHooks) ObjectCreated(string)     {}
func (nopHooks) ObjectFinalized(string)   {}

// Runtime owns a type registry and the composition tree built from it.
// The zero value is not usable; call NewRuntime.
type Runtime struct {
	types     map[string]*Type
	root      *Object
	ifaceType *Type

	log   zerolog.Logger
	hooks Hooks
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for debug tracing and fatal reports.
func WithLogger(l zerolog.Logger) Option {
	return func(rt *Runtime) {
		rt.log = l
	}
}

// WithHooks installs an event observer.
func WithHooks(h Hooks) Option {
	return func(rt *Runtime) {
		if h != nil {
			rt.hooks = h
		}
	}
}

// NewRuntime creates a runtime with the built-in "interface" and
// "container" types registered.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		types: make(map[string]*Type),
		log:   zerolog.Nop(),
		hooks: nopHooks{},
	}
	for _, opt := range opts {
		opt(rt)
	}

	rt.ifaceType = rt.RegisterType(TypeInfo{
		Name:         TypeInterface,
		InstanceSize: BaseObjectSize,
		Abstract:     true,
	})
	rt.RegisterType(TypeInfo{
		Name:         TypeContainer,
		InstanceSize: BaseObjectSize,
	})
	return rt
}

// Root returns the root of the composition tree, creating it on first use.
func (rt *Runtime) Root() *Object {
	if rt.root == nil {
		rt.root = rt.New(TypeContainer)
	}
	return rt.root
}

var defaultRuntime *Runtime

// Default returns the process-wide runtime, creating it on first use.
func Default() *Runtime {
	if defaultRuntime == nil {
		defaultRuntime = NewRuntime()
	}
	return defaultRuntime
}

// RegisterType registers info with the default runtime.
func RegisterType(info TypeInfo) *Type {
	return Default().RegisterType(info)
}

// New creates an instance of typeName on the default runtime.
func New(typeName string) *Object {
	return Default().New(typeName)
}

// Root returns the default runtime's root object.
func Root() *Object {
	return Default().Root()
}

// ResolvePath resolves path on the default runtime.
func ResolvePath(path string) (*Object, error) {
	return Default().ResolvePath(path)
}
