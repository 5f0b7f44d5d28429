package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/qom/internal/logging"
	"github.com/mesh-intelligence/qom/internal/machine"
	"github.com/mesh-intelligence/qom/internal/metrics"
	"github.com/mesh-intelligence/qom/internal/paths"
	"github.com/mesh-intelligence/qom/internal/sqlite"
	"github.com/mesh-intelligence/qom/pkg/qom"
)

// session is the state a command works against: the loaded configuration
// and a runtime holding the machine.
type session struct {
	configDir string
	cfg       *viper.Viper
	log       zerolog.Logger
	rt        *qom.Runtime
	registry  *prometheus.Registry
}

// newSession loads configuration, sets up logging and metrics, and builds
// the configured machine.
func newSession(cmd *cobra.Command) (*session, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, sysError("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, sysError("%w", err)
	}

	level := flags.logLevel
	if level == "" {
		level = cfg.GetString(cfgKeyLogLevel)
	}
	logger := logging.Configure(logging.ProfileRuntime, cmd.ErrOrStderr(), level)

	registry := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return nil, sysError("register metrics: %w", err)
	}

	s := &session{
		configDir: configDir,
		cfg:       cfg,
		log:       logger,
		rt:        machine.NewRuntime(qom.WithLogger(logger), qom.WithHooks(collector)),
		registry:  registry,
	}
	if err := s.buildMachine(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *session) buildMachine() error {
	path := flags.machine
	if path == "" {
		path = s.cfg.GetString(cfgKeyMachine)
	}

	desc := machine.Default()
	if path != "" {
		var err error
		desc, err = machine.Load(path)
		if err != nil {
			return fmt.Errorf("load machine: %w", err)
		}
	}
	if err := machine.Build(s.rt, desc); err != nil {
		return fmt.Errorf("build machine: %w", err)
	}
	s.log.Debug().Str("machine", path).Int("objects", len(desc.Objects)).Msg("machine built")
	return nil
}

// dataDir resolves the snapshot directory: flag > config > QOM_DATA_DIR >
// platform default.
func (s *session) dataDir() (string, error) {
	return paths.ResolveDataDir(flags.dataDir, s.cfg.GetString(cfgKeyDataDir))
}

// attachStore opens the snapshot store. The caller must Detach it.
func (s *session) attachStore() (*sqlite.Store, error) {
	dir, err := s.dataDir()
	if err != nil {
		return nil, sysError("resolve data dir: %w", err)
	}
	store := sqlite.NewStore()
	if err := store.Attach(dir); err != nil {
		return nil, sysError("attach snapshot store: %w", err)
	}
	return store, nil
}
