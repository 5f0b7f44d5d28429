// Package machine defines a small set of device types on top of the object
// runtime and builds machines from YAML or TOML descriptions.
package machine

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/mesh-intelligence/qom/pkg/qom"
)

// Type names registered by Register.
const (
	TypeDevice         = "device"
	TypeBus            = "bus"
	TypePeripheral     = "peripheral"
	TypeE1000          = "e1000"
	TypeVirtioBlk      = "virtio-blk"
	TypePort           = "port"
	TypeHotplugHandler = "hotplug-handler"
)

// Property and class field names.
const (
	PropLabel    = "label"
	PropRealized = "realized"
	PropProduct  = "product"
	PropAttached = "attached"

	fieldPlug    = "plug"
	fieldProduct = "product"
)

var ErrNotHotplugHandler = errors.New("object does not implement hotplug-handler")

// DeviceState holds the fields every device carries.
type DeviceState struct {
	Label    string
	Realized bool
}

// PortState holds the peripheral a port is attached to.
type PortState struct {
	Attached *qom.Object
}

// HotplugFunc plugs dev into handler under name. handler is the
// implementing object, not its interface proxy.
type HotplugFunc func(handler, dev *qom.Object, name string) error

// NewRuntime creates a runtime with the machine types registered.
func NewRuntime(opts ...qom.Option) *qom.Runtime {
	rt := qom.NewRuntime(opts...)
	Register(rt)
	return rt
}

// Register adds the machine types to rt.
func Register(rt *qom.Runtime) {
	rt.RegisterType(qom.TypeInfo{
		Name:     TypeHotplugHandler,
		Parent:   qom.TypeInterface,
		Abstract: true,
	})
	rt.RegisterType(qom.TypeInfo{
		Name:         TypeDevice,
		Abstract:     true,
		InstanceSize: qom.BaseObjectSize + int(unsafe.Sizeof(DeviceState{})),
		NewState:     func() any { return &DeviceState{} },
		InstanceInit: initDevice,
	})
	rt.RegisterType(qom.TypeInfo{
		Name:   TypeBus,
		Parent: TypeDevice,
		Interfaces: []qom.InterfaceInfo{{
			Type: TypeHotplugHandler,
			InterfaceInit: func(c *qom.Class, _ any) {
				c.Set(fieldPlug, HotplugFunc(busPlug))
			},
		}},
	})
	rt.RegisterType(qom.TypeInfo{
		Name:         TypePeripheral,
		Parent:       TypeDevice,
		ClassData:    "generic peripheral",
		ClassInit:    initPeripheralClass,
		InstanceInit: initPeripheral,
	})
	registerPeripheral(rt, TypeE1000, "Intel 82540EM Gigabit Ethernet")
	registerPeripheral(rt, TypeVirtioBlk, "Virtio block device")
	rt.RegisterType(qom.TypeInfo{
		Name:         TypePort,
		Parent:       TypeDevice,
		InstanceSize: qom.BaseObjectSize + int(unsafe.Sizeof(DeviceState{})) + int(unsafe.Sizeof(PortState{})),
		NewState:     func() any { return &PortState{} },
		InstanceInit: initPort,
	})
}

func registerPeripheral(rt *qom.Runtime, name, product string) {
	rt.RegisterType(qom.TypeInfo{
		Name:      name,
		Parent:    TypePeripheral,
		ClassData: product,
		ClassInit: initPeripheralClass,
	})
}

func initDevice(o *qom.Object) {
	st, _ := qom.StateOf[*DeviceState](o, TypeDevice)
	mustAdd(o.AddStringProperty(PropLabel,
		func(*qom.Object) (string, error) { return st.Label, nil },
		func(_ *qom.Object, v string) error { st.Label = v; return nil }))
	mustAdd(o.AddBoolProperty(PropRealized,
		func(*qom.Object) (bool, error) { return st.Realized, nil },
		func(_ *qom.Object, v bool) error { st.Realized = v; return nil }))
}

func initPeripheralClass(c *qom.Class, data any) {
	if product, ok := data.(string); ok && product != "" {
		c.Set(fieldProduct, product)
	}
}

func initPeripheral(o *qom.Object) {
	mustAdd(o.AddStringProperty(PropProduct, func(o *qom.Object) (string, error) {
		product, _ := qom.ClassField[string](o.Class(), fieldProduct)
		return product, nil
	}, nil))
}

func initPort(o *qom.Object) {
	st, _ := qom.StateOf[*PortState](o, TypePort)
	mustAdd(o.AddLink(PropAttached, TypePeripheral, &st.Attached))
}

// mustAdd panics if a property could not be added during instance init,
// which only happens when two types on one chain pick the same name.
func mustAdd(err error) {
	if err != nil {
		panic(err)
	}
}

func busPlug(bus, dev *qom.Object, name string) error {
	if err := bus.AddChild(name, dev); err != nil {
		return err
	}
	return dev.SetBool(PropRealized, true)
}

// Plug hands dev to handler's hotplug implementation. handler may be the
// implementing object or its hotplug-handler proxy.
func Plug(handler *qom.Object, name string, dev *qom.Object) error {
	iface, ok := handler.DynamicCast(TypeHotplugHandler)
	if !ok || !iface.IsInterface() {
		return fmt.Errorf("%w: %s", ErrNotHotplugHandler, handler.TypeName())
	}
	fn, ok := qom.ClassField[HotplugFunc](iface.Class(), fieldPlug)
	if !ok {
		return fmt.Errorf("%w: %s has no plug handler", ErrNotHotplugHandler, handler.TypeName())
	}
	return fn(iface.Backing(), dev, name)
}
