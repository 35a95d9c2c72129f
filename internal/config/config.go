// Package config loads the on-disk manager configuration from a single
// local CUE file: no module registry, no OCI-hosted schema, no signature
// verification of the config file itself (that machinery applies only to
// the runtime index, see internal/verify).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
)

// configSchema constrains the fields LoadConfig accepts, giving basic type
// and shape validation "for free" from CUE before JSON-decoding into Config.
const configSchema = `
config: {
	"index-sources"?: [...string]
	"install-dir"?: string
	"global-dir"?: string
	"cache-dir"?: string
	"default-platform"?: string
	"default-tag"?: string
	"preserve-site-on-upgrade"?: bool
	"shortcuts-enabled"?: [...string]
	"shortcuts-disabled"?: [...string]
	"automatic-install-disabled"?: bool
	"require-signed-index"?: bool
}
`

// Config is the parsed manager configuration.
type Config struct {
	IndexSources             []string `json:"index-sources,omitempty"`
	InstallDir               string   `json:"install-dir,omitempty"`
	GlobalDir                string   `json:"global-dir,omitempty"`
	CacheDir                 string   `json:"cache-dir,omitempty"`
	DefaultPlatform          string   `json:"default-platform,omitempty"`
	DefaultTag               string   `json:"default-tag,omitempty"`
	PreserveSiteOnUpgrade    bool     `json:"preserve-site-on-upgrade,omitempty"`
	ShortcutsEnabled         []string `json:"shortcuts-enabled,omitempty"`
	ShortcutsDisabled        []string `json:"shortcuts-disabled,omitempty"`
	AutomaticInstallDisabled bool     `json:"automatic-install-disabled,omitempty"`
	RequireSignedIndex       bool     `json:"require-signed-index,omitempty"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		IndexSources: []string{"https://www.python.org/ftp/python/index.json"},
	}
}

// ConfigFileName is the config file's fixed name within its directory.
const ConfigFileName = "pymanager.cue"

// LoadConfig loads configuration from configDir/pymanager.cue, returning
// DefaultConfig if the file doesn't exist.
func LoadConfig(configDir string) (*Config, error) {
	path := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw CUE source against configSchema and decodes the
// "config" block into a Config, starting from DefaultConfig so unset
// fields keep their defaults.
func Parse(data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(configSchema)
	if schemaVal.Err() != nil {
		return nil, fmt.Errorf("config: internal schema error: %w", schemaVal.Err())
	}

	fileVal := ctx.CompileBytes(data)
	if fileVal.Err() != nil {
		return nil, fmt.Errorf("config: parse CUE: %w", fileVal.Err())
	}

	unified := schemaVal.Unify(fileVal)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	configValue := unified.LookupPath(cue.ParsePath("config"))
	if !configValue.Exists() {
		return DefaultConfig(), nil
	}

	cfg := DefaultConfig()
	jsonBytes, err := configValue.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

// ToCue renders cfg as a "config: {...}" CUE document, the inverse of Parse.
func (c *Config) ToCue() ([]byte, error) {
	ctx := cuecontext.New()
	v := ctx.Encode(map[string]any{"config": c})
	if v.Err() != nil {
		return nil, fmt.Errorf("config: encode: %w", v.Err())
	}
	node, err := format.Node(v.Syntax())
	if err != nil {
		return nil, fmt.Errorf("config: format: %w", err)
	}
	return append([]byte("package pymanager\n\n"), node...), nil
}
