package machine

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies a description encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var ErrUnknownFormat = errors.New("unknown machine description format")

//go:embed default.yaml
var defaultDescription []byte

// Description lists the objects of a machine in creation order and the
// links wired between them once all objects exist.
type Description struct {
	Objects []ObjectSpec `yaml:"objects" toml:"objects"`
	Links   []LinkSpec   `yaml:"links" toml:"links"`
}

// ObjectSpec describes one object. Parent is a path to an already created
// object; empty means the root. Props values are set through their text
// form.
type ObjectSpec struct {
	Name   string         `yaml:"name" toml:"name"`
	Type   string         `yaml:"type" toml:"type"`
	Parent string         `yaml:"parent,omitempty" toml:"parent,omitempty"`
	Props  map[string]any `yaml:"props,omitempty" toml:"props,omitempty"`
}

// LinkSpec points the link property Property of Object at Target.
type LinkSpec struct {
	Object   string `yaml:"object" toml:"object"`
	Property string `yaml:"property" toml:"property"`
	Target   string `yaml:"target" toml:"target"`
}

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Load reads a description file, choosing the decoder by extension.
func Load(path string) (*Description, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading machine description: %w", err)
	}
	desc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// Parse decodes a description.
func Parse(data []byte, format Format) (*Description, error) {
	var desc Description
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &desc); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &desc); err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &desc, nil
}

// Default returns the built-in sample machine.
func Default() *Description {
	desc, err := Parse(defaultDescription, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded machine description: %v", err))
	}
	return desc
}
