// Package config provides the options that shape how an EBF program runs and
// how its lowered form is rendered.
//
// Options come from three layers, each overriding the one before: Default,
// a YAML or TOML file, and the #%( ... ) block inside the program source.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/lower"
	"github.com/sarchlab/ebf/program"
)

// ErrInvalid is the kind of every validation error.
var ErrInvalid = errors.New("invalid config")

// Options configures machines and the C renderer.
type Options struct {
	MemorySize  int      `yaml:"memory_size" toml:"memory_size"`
	CellWidth   int      `yaml:"cell_width" toml:"cell_width"`
	Endianness  string   `yaml:"endianness" toml:"endianness"`
	Includes    []string `yaml:"includes" toml:"includes"`
	InitHook    string   `yaml:"init_hook" toml:"init_hook"`
	CleanupHook string   `yaml:"cleanup_hook" toml:"cleanup_hook"`
	EOF         int      `yaml:"eof" toml:"eof"`
	MaxSteps    int      `yaml:"max_steps" toml:"max_steps"`
}

// Default returns the options used when nothing else is configured.
func Default() Options {
	return Options{
		MemorySize: core.DefaultMemorySize,
		CellWidth:  8,
		Endianness: "host",
	}
}

// Validate reports the first option outside its allowed range.
func (o Options) Validate() error {
	switch {
	case o.MemorySize <= 0:
		return fmt.Errorf("%w: memory_size %d must be positive", ErrInvalid, o.MemorySize)
	case o.CellWidth != 8 && o.CellWidth != 16 && o.CellWidth != 32 && o.CellWidth != 64:
		return fmt.Errorf("%w: cell_width %d must be 8, 16, 32 or 64", ErrInvalid, o.CellWidth)
	case o.Endianness != "host" && o.Endianness != "little" && o.Endianness != "big":
		return fmt.Errorf("%w: endianness %q must be host, little or big", ErrInvalid, o.Endianness)
	case o.EOF < 0 || o.EOF > 255:
		return fmt.Errorf("%w: eof %d must fit in a byte", ErrInvalid, o.EOF)
	case o.MaxSteps < 0:
		return fmt.Errorf("%w: max_steps %d must not be negative", ErrInvalid, o.MaxSteps)
	}
	return nil
}

// LoadFile reads options from a .yaml, .yml or .toml file on top of base.
func LoadFile(path string, base Options) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("cannot read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return parseTOML(data, base, path)
	case ".yaml", ".yml":
		return parseYAML(data, base, path)
	default:
		return base, fmt.Errorf("%s: unknown config format %q", path, filepath.Ext(path))
	}
}

// ParseBlock reads the YAML body of a #%( ... ) block on top of base.
func ParseBlock(body string, base Options) (Options, error) {
	return parseYAML([]byte(body), base, "config block")
}

// ForProgram applies the config block of p, if any, on top of base.
func ForProgram(p *program.Program, base Options) (Options, error) {
	if strings.TrimSpace(p.Config) == "" {
		return base, nil
	}
	return ParseBlock(p.Config, base)
}

func parseYAML(data []byte, base Options, where string) (Options, error) {
	o := base

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("parse error in %s: %w", where, err)
	}

	if err := o.Validate(); err != nil {
		return base, fmt.Errorf("%s: %w", where, err)
	}
	return o, nil
}

func parseTOML(data []byte, base Options, where string) (Options, error) {
	o := base

	md, err := toml.Decode(string(data), &o)
	if err != nil {
		return base, fmt.Errorf("parse error in %s: %w", where, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return base, fmt.Errorf("parse error in %s: unknown key %q", where, undecoded[0].String())
	}

	if err := o.Validate(); err != nil {
		return base, fmt.Errorf("%s: %w", where, err)
	}
	return o, nil
}

// Configure applies the machine options to a core builder.
func (o Options) Configure(b core.Builder) core.Builder {
	b = b.WithEOF(byte(o.EOF)).WithMaxSteps(o.MaxSteps)
	if o.MemorySize > 0 {
		b = b.WithMemorySize(o.MemorySize)
	}
	return b
}

// RenderOptions returns the options of the C renderer.
func (o Options) RenderOptions() lower.RenderOptions {
	return lower.RenderOptions{
		MemorySize:  o.MemorySize,
		CellWidth:   o.CellWidth,
		Endianness:  o.Endianness,
		Includes:    o.Includes,
		EOF:         byte(o.EOF),
		InitHook:    o.InitHook,
		CleanupHook: o.CleanupHook,
	}
}
