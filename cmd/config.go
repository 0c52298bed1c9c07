package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/superloach/liteexpr/pkg/liteexpr"
)

// Config represents a liteexpr.toml settings file. Command-line flags
// override every field.
type Config struct {
	Debug    DebugConfig `toml:"debug"`
	MaxDepth int         `toml:"max_depth"`
	Output   string      `toml:"output"`

	// Symbols are bound into the root scope before any program runs.
	Symbols map[string]interface{} `toml:"symbols"`
}

type DebugConfig struct {
	Lex   bool `toml:"lex"`
	Parse bool `toml:"parse"`
	Dump  bool `toml:"dump"`
}

var outputModes = []string{"text", "repr", "json"}

// LoadConfig parses a TOML settings file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if c.Output != "" && !validOutput(c.Output) {
		return nil, fmt.Errorf("%s: unknown output mode %q, expected one of %s",
			path, c.Output, strings.Join(outputModes, ", "))
	}

	return &c, nil
}

func validOutput(mode string) bool {
	for _, m := range outputModes {
		if m == mode {
			return true
		}
	}
	return false
}

// LoadSymbols reads initial bindings from a JSON, TOML or CBOR file,
// chosen by extension.
func LoadSymbols(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return liteexpr.Bindings(data, "json")
	case ".cbor":
		return liteexpr.Bindings(data, "cbor")
	case ".toml":
		symbols := map[string]interface{}{}
		if err := toml.Unmarshal(data, &symbols); err != nil {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
		return symbols, nil
	default:
		return nil, fmt.Errorf("%s: unsupported symbol file type %q", path, ext)
	}
}

// mergeSymbols layers later maps over earlier ones.
func mergeSymbols(layers ...map[string]interface{}) map[string]interface{} {
	merged := map[string]interface{}{}
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}

// formatResult renders a program's final value for printing.
func formatResult(val liteexpr.Value, mode string) (string, error) {
	switch mode {
	case "", "text":
		return val.String(), nil
	case "repr":
		return liteexpr.Repr(val), nil
	case "json":
		b, err := liteexpr.EncodeJSON(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", fmt.Errorf("unknown output mode %q, expected one of %s", mode, strings.Join(outputModes, ", "))
}
