package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/qom/internal/paths"
)

// setupEnv points qomctl at fresh config and data directories.
func setupEnv(t *testing.T) (configDir, dataDir string) {
	t.Helper()
	configDir = filepath.Join(t.TempDir(), "config")
	dataDir = filepath.Join(t.TempDir(), "data")
	t.Setenv(paths.EnvConfigDir, configDir)
	t.Setenv(paths.EnvDataDir, dataDir)
	t.Setenv("QOM_LOG_LEVEL", "")
	t.Setenv("QOM_MACHINE", "")
	return configDir, dataDir
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	root := NewRootCmd()
	var out, errb bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errb)
	root.SetArgs(args)
	code = run(root, &errb)
	return out.String(), errb.String(), code
}

func TestVersion(t *testing.T) {
	setupEnv(t)
	out, _, code := runCLI(t, "version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "qomctl v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	configDir, dataDir := setupEnv(t)

	out, _, code := runCLI(t, "init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "wrote "+paths.ConfigFile(configDir))

	data, err := os.ReadFile(paths.ConfigFile(configDir))
	require.NoError(t, err)
	var cfg configFile
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
	assert.Equal(t, dataDir, cfg.DataDir)

	_, err = os.Stat(paths.SnapshotDB(dataDir))
	assert.NoError(t, err)

	out, _, code = runCLI(t, "init")
	require.Equal(t, exitSuccess, code)
	assert.NotContains(t, out, "wrote", "an existing config is left alone")
}

func TestTypes(t *testing.T) {
	setupEnv(t)

	out, _, code := runCLI(t, "types", "--implements", "device")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "bus : device implements hotplug-handler\n")
	assert.Contains(t, out, "e1000 : peripheral\n")
	assert.NotContains(t, out, "(abstract)")

	out, _, code = runCLI(t, "types", "--implements", "device", "--abstract")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "device (abstract)\n")

	out, _, code = runCLI(t, "--json", "types", "--implements", "hotplug-handler", "--abstract")
	require.Equal(t, exitSuccess, code)
	var infos []typeInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	var names []string
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"<bus::hotplug-handler>", "hotplug-handler"}, names)

	_, stderr, code := runCLI(t, "types", "--implements", "gpu")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, `unknown type "gpu"`)
}

func TestTree(t *testing.T) {
	setupEnv(t)

	out, _, code := runCLI(t, "tree")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, strings.Join([]string{
		"/ (container)",
		"  pci (bus)",
		"    nic0 (e1000)",
		"    disk0 (virtio-blk)",
		"  serial0 (port)",
		"    attached -> <unset>",
		"  eth (port)",
		"    attached -> /pci/nic0",
		"",
	}, "\n"), out)

	out, _, code = runCLI(t, "tree", "--yaml")
	require.Equal(t, exitSuccess, code)
	var root treeNode
	require.NoError(t, yaml.Unmarshal([]byte(out), &root))
	assert.Equal(t, "/", root.Path)
	require.Len(t, root.Children, 3)
	assert.Equal(t, "pci", root.Children[0].Name)
	assert.Equal(t, "/pci/disk0", root.Children[0].Children[1].Path)
}

func TestTreeFromTOMLMachine(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "board.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[objects]]
name = "isa"
type = "bus"

[[objects]]
name = "blk"
type = "virtio-blk"
parent = "/isa"
`), 0o644))

	out, _, code := runCLI(t, "--machine", path, "tree")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "  isa (bus)\n    blk (virtio-blk)\n")
}

func TestBadMachine(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte("objects:\n  - name: x\n    type: gpu\n"), 0o644))

	_, stderr, code := runCLI(t, "--machine", path, "tree")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "unknown object type")
}

func TestResolve(t *testing.T) {
	setupEnv(t)

	out, _, code := runCLI(t, "--json", "resolve", "nic0")
	require.Equal(t, exitSuccess, code)
	var info objectInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "/pci/nic0", info.Path)
	assert.Equal(t, "e1000", info.Type)
	assert.NotEmpty(t, info.ID)

	out, _, code = runCLI(t, "resolve", "/pci", "--type", "hotplug-handler")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "/pci (<bus::hotplug-handler>)")

	out, _, code = runCLI(t, "resolve", "/pci/nic0")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "  product: string (read-only)\n")

	_, stderr, code := runCLI(t, "resolve", "/nowhere")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "object not found")
}

func TestResolveAmbiguous(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`objects:
  - {name: pci, type: bus}
  - {name: usb, type: bus}
  - {name: dev, type: e1000, parent: /pci}
  - {name: dev, type: virtio-blk, parent: /usb}
`), 0o644))

	_, stderr, code := runCLI(t, "--machine", path, "resolve", "dev")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "ambiguous path")

	out, _, code := runCLI(t, "--machine", path, "resolve", "dev", "--type", "virtio-blk")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "/usb/dev (virtio-blk)")
}

func TestGetSet(t *testing.T) {
	setupEnv(t)

	out, _, code := runCLI(t, "get", "nic0", "product")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "Intel 82540EM Gigabit Ethernet\n", out)

	out, _, code = runCLI(t, "set", "serial0", "label", "debug console")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "debug console\n", out)

	out, _, code = runCLI(t, "set", "disk0", "realized", "false")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "false\n", out)

	out, _, code = runCLI(t, "set", "eth", "attached", "disk0")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "/pci/disk0\n", out)

	_, stderr, code := runCLI(t, "set", "eth", "attached", "/pci")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "invalid parameter type")

	_, stderr, code = runCLI(t, "set", "nic0", "product", "fake")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "permission denied")

	_, stderr, code = runCLI(t, "set", "nic0", "realized", "maybe")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "not a boolean")

	_, _, code = runCLI(t, "get", "nic0", "speed")
	assert.Equal(t, exitUserError, code)
}

func TestSnapshots(t *testing.T) {
	setupEnv(t)

	out, _, code := runCLI(t, "snapshot")
	require.Equal(t, exitSuccess, code)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, _, code = runCLI(t, "set", "serial0", "label", "changed", "--snapshot")
	require.Equal(t, exitSuccess, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	second := lines[1]

	out, _, code = runCLI(t, "snapshots")
	require.Equal(t, exitSuccess, code)
	listed := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, listed, 2)
	assert.True(t, strings.HasPrefix(listed[0], id))
	assert.True(t, strings.HasPrefix(listed[1], second))
	assert.Contains(t, listed[0], "6 objects")

	out, _, code = runCLI(t, "snapshots", second)
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "/pci/nic0 (e1000) refs=2\n")
	assert.Contains(t, out, "  label = changed\n")

	_, stderr, code := runCLI(t, "snapshots", "no-such-id")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "snapshot not found")
}

func TestStats(t *testing.T) {
	setupEnv(t)

	out, _, code := runCLI(t, "stats")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, `qom_objects_live{type="e1000"} 1`)
	assert.Contains(t, out, `qom_objects_live{type="<bus::hotplug-handler>"} 1`)
	assert.Contains(t, out, `qom_classes_materialized_total{type="port"} 1`)
}
