package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/qom/internal/paths"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyLogLevel = "log_level"
	cfgKeyDataDir  = "data_dir"
	cfgKeyMachine  = "machine"

	defaultLogLevel = "warn"
)

// configFile is the structure written to config.yaml by init.
type configFile struct {
	LogLevel string `yaml:"log_level"`
	DataDir  string `yaml:"data_dir,omitempty"`
	Machine  string `yaml:"machine,omitempty"`
}

// loadConfig reads config.yaml from configDir. A missing file is not an
// error. QOM_LOG_LEVEL, QOM_DATA_DIR and QOM_MACHINE override the file.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("QOM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. It reports whether a file was written.
func writeConfigIfMissing(configDir string, cfg configFile) (bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
