// Package config provides scenario loading, watching and building.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/droid-go/domain/config"
)

// Format is a scenario file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var decoders = map[Format]func([]byte, any) error{
	FormatYAML: yaml.Unmarshal,
	FormatJSON: json.Unmarshal,
}

var extensions = map[string]Format{
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".json": FormatJSON,
}

// Loader turns scenario files into validated scenarios. Loading runs
// ${VAR} expansion, decoding, DROID_* overrides, defaults and validation,
// in that order; each step but decoding can be switched off.
type Loader struct {
	ExpandEnv    bool
	StrictEnv    bool
	EnvOverrides bool
	Validate     bool
	// Lookup resolves environment variables. Nil uses os.LookupEnv.
	Lookup LookupFunc
}

// NewLoader returns a loader with every step on and lenient expansion.
func NewLoader() *Loader {
	return &Loader{ExpandEnv: true, EnvOverrides: true, Validate: true}
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

func WithEnvExpansion(on bool) LoaderOption { return func(l *Loader) { l.ExpandEnv = on } }

// WithStrictEnv makes unset ${VAR} references an error.
func WithStrictEnv(on bool) LoaderOption { return func(l *Loader) { l.StrictEnv = on } }

func WithEnvOverrides(on bool) LoaderOption { return func(l *Loader) { l.EnvOverrides = on } }

func WithValidation(on bool) LoaderOption { return func(l *Loader) { l.Validate = on } }

// WithLookup replaces the environment used for expansion and overrides.
func WithLookup(lookup LookupFunc) LoaderOption { return func(l *Loader) { l.Lookup = lookup } }

// NewLoaderWithOptions applies opts over NewLoader.
func NewLoaderWithOptions(opts ...LoaderOption) *Loader {
	l := NewLoader()
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads a .yaml, .yml or .json scenario.
func (l *Loader) LoadFile(path string) (*config.Scenario, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
	case err != nil:
		return nil, fmt.Errorf("stat scenario %s: %w", path, err)
	case info.IsDir():
		return nil, fmt.Errorf("%w: %s is a directory", config.ErrInvalidFormat, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	format, ok := extensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", config.ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return l.LoadBytes(data, format)
}

// Load reads a whole scenario from r.
func (l *Loader) Load(r io.Reader, format Format) (*config.Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return l.LoadBytes(data, format)
}

// LoadString loads a scenario held in a string.
func (l *Loader) LoadString(content string, format Format) (*config.Scenario, error) {
	return l.LoadBytes([]byte(content), format)
}

// LoadBytes runs the loading steps over data.
func (l *Loader) LoadBytes(data []byte, format Format) (*config.Scenario, error) {
	decode, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, format)
	}

	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	text := string(data)
	if l.ExpandEnv {
		var err error
		if text, err = expand(text, l.StrictEnv, lookup); err != nil {
			return nil, err
		}
	}

	s := &config.Scenario{}
	if err := decode([]byte(text), s); err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
	}

	if l.EnvOverrides {
		if err := ApplyEnvOverrides(s, lookup); err != nil {
			return nil, err
		}
	}
	s.ApplyDefaults()

	if l.Validate {
		if errs := config.NewValidator().Validate(s); errs.HasErrors() {
			return nil, fmt.Errorf("%w: %w", config.ErrValidationFailed, errs)
		}
	}
	return s, nil
}
