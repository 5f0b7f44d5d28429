package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qom/internal/paths"
	"github.com/mesh-intelligence/qom/internal/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and snapshot database",
		Long:  "Create the configuration directory with a default config.yaml, then\ncreate the snapshot database in the data directory.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return sysError("%w", err)
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return sysError("resolve data dir: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError("create config directory: %w", err)
	}
	written, err := writeConfigIfMissing(configDir, configFile{
		LogLevel: defaultLogLevel,
		DataDir:  dataDir,
		Machine:  flags.machine,
	})
	if err != nil {
		return sysError("write config: %w", err)
	}

	store := sqlite.NewStore()
	if err := store.Attach(dataDir); err != nil {
		return sysError("initialize snapshot store: %w", err)
	}
	if err := store.Detach(); err != nil {
		return sysError("close snapshot store: %w", err)
	}

	out := cmd.OutOrStdout()
	if written {
		fmt.Fprintf(out, "wrote %s\n", paths.ConfigFile(configDir))
	}
	fmt.Fprintf(out, "snapshot database %s\n", paths.SnapshotDB(dataDir))
	return nil
}
