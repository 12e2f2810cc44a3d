package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	domainconfig "github.com/felixgeelhaar/droid-go/domain/config"
)

// LookupFunc resolves an environment variable. os.LookupEnv is the default.
type LookupFunc func(name string) (string, bool)

// envRef matches ${NAME}, ${NAME:-fallback}, ${NAME:?message} and $NAME.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([-?])([^}]*))?\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expand substitutes environment references in s in a single pass, so
// substituted values are never expanded again. Unset plain references
// become empty unless strict is set.
func expand(s string, strict bool, lookup LookupFunc) (string, error) {
	var missing []string

	out := envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		name, op, arg := m[1], m[2], m[3]
		if name == "" {
			name = m[4]
		}

		value, ok := lookup(name)
		switch op {
		case "-":
			if !ok || value == "" {
				return arg
			}
		case "?":
			if !ok || value == "" {
				missing = append(missing, name+": "+arg)
				return ref
			}
		default:
			if !ok && strict {
				missing = append(missing, name)
			}
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(missing, ", "))
	}
	return out, nil
}

// ExpandEnv expands environment references, leaving unset ones empty.
func ExpandEnv(input string) string {
	out, _ := expand(input, false, os.LookupEnv)
	return out
}

// ExpandEnvStrict expands environment references and fails on unset ones.
func ExpandEnvStrict(input string) (string, error) {
	return expand(input, true, os.LookupEnv)
}

// EnvPrefix prefixes the variables that override scenario settings.
const EnvPrefix = "DROID_"

// envOverrides maps DROID_* suffixes to the string settings they replace.
// Only settings that usually differ between machines are covered.
func envOverrides(s *domainconfig.Scenario) map[string]*string {
	return map[string]*string{
		"LOG_LEVEL":       &s.Logging.Level,
		"LOG_FORMAT":      &s.Logging.Format,
		"STORAGE_BACKEND": &s.Storage.Backend,
		"STORAGE_DSN":     &s.Storage.DSN,
		"STORAGE_ADDRESS": &s.Storage.Address,
		"STORAGE_PREFIX":  &s.Storage.Prefix,
		"EVENTS_DIR":      &s.Storage.EventsDir,
		"OTLP_ENDPOINT":   &s.Telemetry.Endpoint,
	}
}

// ApplyEnvOverrides copies non-empty DROID_* variables onto s. It runs
// after parsing and before defaults, so an override wins over both.
func ApplyEnvOverrides(s *domainconfig.Scenario, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for key, dst := range envOverrides(s) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "MAX_TICKS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %sMAX_TICKS=%q", domainconfig.ErrInvalidFormat, EnvPrefix, v)
		}
		s.Simulation.MaxTicks = n
	}
	return nil
}

// LoadEnvFiles reads KEY=value files into the process environment.
// Variables that are already set keep their value, and earlier files win
// over later ones.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}
