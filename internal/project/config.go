// Package project locates and decodes plbind.toml.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"plbind/internal/abi"
)

// ErrConfigExists is returned by Write when the file is already present.
var ErrConfigExists = errors.New(ConfigFileName + " already exists")

// Engine is the [engine] section: the naming contract.
type Engine struct {
	AliasIdent      string `toml:"alias_ident"`
	LengthType      string `toml:"length_type"`
	DirectivePrefix string `toml:"directive_prefix"`
}

// Output is the [output] section.
type Output struct {
	// Dir receives generated files; empty means stdout unless -w is given.
	Dir string `toml:"dir"`
	// Manifest is the path of the export manifest written by `plbind manifest`.
	Manifest       string `toml:"manifest"`
	ManifestFormat string `toml:"manifest_format"`
	// CgoImport adds `import "C"` to generated files so //export is honored.
	CgoImport bool `toml:"cgo_import"`
}

// Config is the decoded plbind.toml.
type Config struct {
	Engine Engine `toml:"engine"`
	Output Output `toml:"output"`
	// Root is the directory holding the file; empty for defaults.
	Root string `toml:"-"`
}

var manifestFormats = []string{"json", "yaml", "msgpack"}

// Default returns the configuration used when no plbind.toml exists.
func Default() Config {
	d := abi.Default()
	return Config{
		Engine: Engine{
			AliasIdent:      d.AliasIdent,
			LengthType:      d.LengthType,
			DirectivePrefix: d.DirectivePrefix,
		},
		Output: Output{Manifest: "plbind.manifest.json", ManifestFormat: "json"},
	}
}

// ABI returns the engine contract with defaults filled in.
func (c Config) ABI() abi.Config {
	return abi.Config{
		AliasIdent:      c.Engine.AliasIdent,
		LengthType:      c.Engine.LengthType,
		DirectivePrefix: c.Engine.DirectivePrefix,
	}.Normalize()
}

// OutputDir returns [output].dir resolved against Root.
func (c Config) OutputDir() string {
	return c.resolve(c.Output.Dir)
}

// ManifestPath returns [output].manifest resolved against Root.
func (c Config) ManifestPath() string {
	return c.resolve(c.Output.Manifest)
}

func (c Config) resolve(p string) string {
	if p == "" || p == "-" || filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// Load decodes path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Root = filepath.Dir(path)
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the nearest plbind.toml above startDir, or Default.
func Discover(startDir string) (Config, error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func (c Config) validate() error {
	format := strings.ToLower(strings.TrimSpace(c.Output.ManifestFormat))
	if format == "" {
		return nil
	}
	for _, f := range manifestFormats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("[output].manifest_format %q is not one of %s", c.Output.ManifestFormat, strings.Join(manifestFormats, ", "))
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ConfigFileName, err)
	}
	return buf.Bytes(), nil
}

// Write creates dir/plbind.toml; an existing file is kept unless force is set.
func Write(dir string, cfg Config, force bool) (string, error) {
	path := filepath.Join(dir, ConfigFileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, ErrConfigExists
		}
	}
	data, err := Encode(cfg)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
