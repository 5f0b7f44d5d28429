package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qom/internal/machine"
	"github.com/mesh-intelligence/qom/pkg/qom"
)

func buildMachine(t *testing.T) *qom.Runtime {
	t.Helper()
	rt := machine.NewRuntime()
	require.NoError(t, machine.Build(rt, machine.Default()))
	return rt
}

func TestSaveSnapshot(t *testing.T) {
	s, _ := attachTemp(t)
	rt := buildMachine(t)

	id, err := s.SaveSnapshot(rt)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	snaps, err := s.Snapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, id, snaps[0].ID)
	assert.Equal(t, 6, snaps[0].ObjectCount, "root, pci, nic0, disk0, serial0, eth")
	assert.False(t, snaps[0].CreatedAt.IsZero())

	objects, err := s.Objects(id)
	require.NoError(t, err)
	byPath := map[string]ObjectRecord{}
	for _, o := range objects {
		byPath[o.Path] = o
	}

	root := byPath["/"]
	assert.Equal(t, qom.TypeContainer, root.Type)
	assert.Empty(t, root.ParentID)

	nic := byPath["/pci/nic0"]
	assert.Equal(t, machine.TypeE1000, nic.Type)
	assert.Equal(t, byPath["/pci"].ID, nic.ParentID)
	assert.Equal(t, 2, nic.RefCount)

	live, err := rt.ResolvePath("/pci/nic0")
	require.NoError(t, err)
	assert.Equal(t, live.ID(), nic.ID)

	props, err := s.Properties(id, nic.ID)
	require.NoError(t, err)
	values := map[string]PropertyRecord{}
	for _, p := range props {
		values[p.Name] = p
	}
	assert.Equal(t, "onboard ethernet", values[machine.PropLabel].Value)
	assert.Equal(t, "true", values[machine.PropRealized].Value)
	assert.Equal(t, qom.PropertyTypeBool, values[machine.PropRealized].Type)
	assert.Equal(t, "Intel 82540EM Gigabit Ethernet", values[machine.PropProduct].Value)

	ethProps, err := s.Properties(id, byPath["/eth"].ID)
	require.NoError(t, err)
	var attached PropertyRecord
	for _, p := range ethProps {
		if p.Name == machine.PropAttached {
			attached = p
		}
	}
	assert.Equal(t, "/pci/nic0", attached.Value)
	assert.Equal(t, "link<peripheral>", attached.Type)

	rootProps, err := s.Properties(id, root.ID)
	require.NoError(t, err)
	require.NotEmpty(t, rootProps)
	assert.Equal(t, "child<bus>", rootProps[0].Type)
	assert.Equal(t, "/pci", rootProps[0].Value)
}

func TestSnapshotsAreIndependent(t *testing.T) {
	s, _ := attachTemp(t)
	rt := buildMachine(t)

	first, err := s.SaveSnapshot(rt)
	require.NoError(t, err)

	nic, err := rt.ResolvePath("nic0")
	require.NoError(t, err)
	require.NoError(t, nic.SetString(machine.PropLabel, "renamed"))

	second, err := s.SaveSnapshot(rt)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	snaps, err := s.Snapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, first, snaps[0].ID)
	assert.Equal(t, second, snaps[1].ID)

	label := func(snapshotID string) string {
		props, err := s.Properties(snapshotID, nic.ID())
		require.NoError(t, err)
		for _, p := range props {
			if p.Name == machine.PropLabel {
				return p.Value
			}
		}
		return ""
	}
	assert.Equal(t, "onboard ethernet", label(first))
	assert.Equal(t, "renamed", label(second))
}

func TestSnapshotNotFound(t *testing.T) {
	s, _ := attachTemp(t)

	_, err := s.Objects("missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	_, err = s.Properties("missing", "obj")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotDetached(t *testing.T) {
	s := NewStore()
	_, err := s.SaveSnapshot(qom.NewRuntime())
	assert.ErrorIs(t, err, ErrDetached)

	_, err = s.Objects("x")
	assert.ErrorIs(t, err, ErrDetached)
}
