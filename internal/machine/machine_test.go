package machine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qom/pkg/qom"
)

const tomlDescription = `
[[objects]]
name = "pci"
type = "bus"

[[objects]]
name = "nic"
type = "e1000"
parent = "/pci"
[objects.props]
label = "lan"

[[objects]]
name = "p0"
type = "port"

[[links]]
object = "/p0"
property = "attached"
target = "/pci/nic"
`

func TestDefaultMachine(t *testing.T) {
	rt := NewRuntime()
	require.NoError(t, Build(rt, Default()))

	nic, err := rt.ResolvePath("/pci/nic0")
	require.NoError(t, err)
	assert.Equal(t, TypeE1000, nic.TypeName())

	realized, err := nic.GetBool(PropRealized)
	require.NoError(t, err)
	assert.True(t, realized, "hotplugged devices are realized")

	product, err := nic.GetString(PropProduct)
	require.NoError(t, err)
	assert.Equal(t, "Intel 82540EM Gigabit Ethernet", product)

	label, err := nic.GetString(PropLabel)
	require.NoError(t, err)
	assert.Equal(t, "onboard ethernet", label)

	eth, err := rt.ResolvePath("eth")
	require.NoError(t, err)
	attached, err := eth.GetLink(PropAttached)
	require.NoError(t, err)
	assert.Same(t, nic, attached)

	serial, err := rt.ResolvePath("/serial0")
	require.NoError(t, err)
	realized, err = serial.GetBool(PropRealized)
	require.NoError(t, err)
	assert.True(t, realized)

	assert.Equal(t, 2, nic.RefCount(), "owned by the bus and held by the port link")
}

func TestParseFormats(t *testing.T) {
	desc, err := Parse([]byte(tomlDescription), FormatTOML)
	require.NoError(t, err)
	require.Len(t, desc.Objects, 3)
	assert.Equal(t, "/pci", desc.Objects[1].Parent)
	assert.Equal(t, "lan", desc.Objects[1].Props["label"])
	require.Len(t, desc.Links, 1)
	assert.Equal(t, "attached", desc.Links[0].Property)

	rt := NewRuntime()
	require.NoError(t, Build(rt, desc))
	port, err := rt.ResolvePath("/p0")
	require.NoError(t, err)
	path, err := port.GetString(PropAttached)
	require.NoError(t, err)
	assert.Equal(t, "/pci/nic", path)

	_, err = Parse([]byte("objects: ["), FormatYAML)
	assert.Error(t, err)

	_, err = Parse(nil, Format("json"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "board.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(tomlDescription), 0o644))

	desc, err := Load(tomlPath)
	require.NoError(t, err)
	assert.Len(t, desc.Objects, 3)

	_, err = Load(filepath.Join(dir, "board.ini"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		desc    Description
		wantErr error
	}{
		{
			name:    "unknown type",
			desc:    Description{Objects: []ObjectSpec{{Name: "x", Type: "gpu"}}},
			wantErr: ErrUnknownType,
		},
		{
			name:    "abstract type",
			desc:    Description{Objects: []ObjectSpec{{Name: "x", Type: TypeDevice}}},
			wantErr: ErrAbstractType,
		},
		{
			name:    "missing name",
			desc:    Description{Objects: []ObjectSpec{{Type: TypeBus}}},
			wantErr: ErrInvalidSpec,
		},
		{
			name:    "missing parent",
			desc:    Description{Objects: []ObjectSpec{{Name: "x", Type: TypeBus, Parent: "/nowhere"}}},
			wantErr: qom.ErrNotFound,
		},
		{
			name: "unknown property",
			desc: Description{Objects: []ObjectSpec{
				{Name: "x", Type: TypeBus, Props: map[string]any{"speed": 3}},
			}},
			wantErr: qom.ErrPropertyNotFound,
		},
		{
			name: "read-only property",
			desc: Description{Objects: []ObjectSpec{
				{Name: "x", Type: TypeE1000, Props: map[string]any{PropProduct: "fake"}},
			}},
			wantErr: qom.ErrPermissionDenied,
		},
		{
			name: "duplicate name",
			desc: Description{Objects: []ObjectSpec{
				{Name: "x", Type: TypeBus},
				{Name: "x", Type: TypePort},
			}},
			wantErr: qom.ErrPropertyExists,
		},
		{
			name: "link to wrong type",
			desc: Description{
				Objects: []ObjectSpec{{Name: "b", Type: TypeBus}, {Name: "p", Type: TypePort}},
				Links:   []LinkSpec{{Object: "/p", Property: PropAttached, Target: "/b"}},
			},
			wantErr: qom.ErrInvalidType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewRuntime()
			err := Build(rt, &tt.desc)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlug(t *testing.T) {
	rt := NewRuntime()
	bus := rt.New(TypeBus)
	dev := rt.New(TypeVirtioBlk)

	require.NoError(t, Plug(bus, "blk", dev))
	assert.Same(t, bus, dev.Parent())
	realized, err := dev.GetBool(PropRealized)
	require.NoError(t, err)
	assert.True(t, realized)

	port := rt.New(TypePort)
	err = Plug(port, "x", rt.New(TypeE1000))
	assert.ErrorIs(t, err, ErrNotHotplugHandler)
}

func TestPeripheralClassData(t *testing.T) {
	rt := NewRuntime()
	generic := rt.New(TypePeripheral)
	product, err := generic.GetString(PropProduct)
	require.NoError(t, err)
	assert.Equal(t, "generic peripheral", product)

	blk, ok := rt.ClassByName(TypeVirtioBlk)
	require.True(t, ok)
	got, ok := qom.ClassField[string](blk, fieldProduct)
	require.True(t, ok)
	assert.Equal(t, "Virtio block device", got)

	_, ok = blk.DynamicCast(TypeDevice)
	assert.True(t, ok)
}
