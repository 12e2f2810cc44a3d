package config

import (
	"encoding/json"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	ID                   string                 `json:"$id,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	AdditionalProperties *JSONSchema            `json:"additionalProperties,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Default              any                    `json:"default,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty"`
	MinLength            *int                   `json:"minLength,omitempty"`
	MaxLength            *int                   `json:"maxLength,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
	Format               string                 `json:"format,omitempty"`
	Ref                  string                 `json:"$ref,omitempty"`
	Definitions          map[string]*JSONSchema `json:"$defs,omitempty"`
	OneOf                []*JSONSchema          `json:"oneOf,omitempty"`
	AnyOf                []*JSONSchema          `json:"anyOf,omitempty"`
	AllOf                []*JSONSchema          `json:"allOf,omitempty"`
}

// GenerateSchema generates a JSON Schema for the Scenario.
func GenerateSchema() *JSONSchema {
	return &JSONSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/felixgeelhaar/droid-go/scenario.schema.json",
		Title:       "Droid Scenario",
		Description: "Scenario schema for droid-go simulations",
		Type:        "object",
		Required:    []string{"name", "agents"},
		Properties: map[string]*JSONSchema{
			"name": {
				Type:        "string",
				Description: "A human-readable name for this scenario",
			},
			"version": {
				Type:        "string",
				Description: "The configuration schema version",
				Default:     "1",
			},
			"description": {
				Type:        "string",
				Description: "Describes what the scenario demonstrates",
			},
			"grid":       generateGridSchema(),
			"agents":     generateAgentsSchema(),
			"simulation": generateSimulationSchema(),
			"logging":    generateLoggingSchema(),
			"storage":    generateStorageSchema(),
			"telemetry":  generateTelemetrySchema(),
			"resilience": generateResilienceSchema(),
		},
	}
}

func generateGridSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Square board",
		Properties: map[string]*JSONSchema{
			"size": {
				Type:        "integer",
				Description: "Edge length in cells",
				Default:     8,
				Minimum:     floatPtr(1),
				Maximum:     floatPtr(4096),
			},
			"origin": {
				Type:        "object",
				Description: "World position of cell (0,0)",
				Properties: map[string]*JSONSchema{
					"x": {Type: "number"},
					"y": {Type: "number"},
				},
			},
		},
	}
}

func generateAgentsSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "array",
		Description: "Roster in scheduling order",
		Items: &JSONSchema{
			Type:     "object",
			Required: []string{"x", "y"},
			Properties: map[string]*JSONSchema{
				"name": {
					Type:        "string",
					Description: "Agent name (default: droid-N)",
				},
				"x": {
					Type:        "integer",
					Description: "Starting column",
					Minimum:     floatPtr(1),
				},
				"y": {
					Type:        "integer",
					Description: "Starting row",
					Minimum:     floatPtr(1),
				},
				"routine": generateRoutineSchema(),
			},
		},
	}
}

func generateRoutineSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Behaviour to run",
		Required:    []string{"kind"},
		Properties: map[string]*JSONSchema{
			"kind": {
				Type:        "string",
				Description: "Routine variant",
				Enum:        []string{"move_to", "follow_behind", "spiral_scan", "protect"},
			},
			"leader": {
				Type:        "integer",
				Description: "1-based position of the agent to follow",
				Minimum:     floatPtr(1),
			},
			"protected": {
				Type:        "integer",
				Description: "1-based position of the agent to shield (-1: selector)",
				Minimum:     floatPtr(-1),
			},
			"threat": {
				Type:        "integer",
				Description: "1-based position of the threatening agent (-1: selector)",
				Minimum:     floatPtr(-1),
			},
			"x": {
				Type:        "integer",
				Description: "Destination column for move_to",
			},
			"y": {
				Type:        "integer",
				Description: "Destination row for move_to",
			},
		},
	}
}

func generateSimulationSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Scheduler settings",
		Properties: map[string]*JSONSchema{
			"max_ticks": {
				Type:    "integer",
				Minimum: floatPtr(0),
				Default: 1000,
			},
			"keep_running": {
				Type:        "boolean",
				Description: "Keep ticking after every routine is terminal",
				Default:     false,
			},
			"selector": {
				Type:        "string",
				Description: "Resolves unset protect references",
				Enum:        []string{"none", "nearest"},
				Default:     "none",
			},
			"lifecycle": {
				Type:        "string",
				Description: "Routine lifecycle engine",
				Enum:        []string{"table", "statechart"},
				Default:     "statechart",
			},
		},
	}
}

func generateLoggingSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Logger settings",
		Properties: map[string]*JSONSchema{
			"level": {
				Type:    "string",
				Enum:    []string{"trace", "debug", "info", "warn", "error"},
				Default: "info",
			},
			"format": {
				Type:    "string",
				Enum:    []string{"console", "json"},
				Default: "console",
			},
		},
	}
}

func generateStorageSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Report and event persistence",
		Properties: map[string]*JSONSchema{
			"backend": {
				Type:    "string",
				Enum:    []string{"memory", "sqlite", "redis", "postgres"},
				Default: "memory",
			},
			"dsn": {
				Type:        "string",
				Description: "sqlite path or postgres connection string",
			},
			"address": {
				Type:        "string",
				Description: "redis address",
			},
			"prefix": {
				Type:        "string",
				Description: "redis key prefix",
				Default:     "droid",
			},
			"events_dir": {
				Type:        "string",
				Description: "badger directory for transition events",
			},
		},
	}
}

func generateTelemetrySchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "OpenTelemetry toggles",
		Properties: map[string]*JSONSchema{
			"metrics":  {Type: "boolean", Default: false},
			"tracing":  {Type: "boolean", Default: false},
			"exporter": {Type: "string", Enum: []string{"stdout", "otlp"}, Default: "stdout"},
			"endpoint": {Type: "string", Description: "OTLP collector address (host:port)"},
			"insecure": {Type: "boolean", Default: false},
		},
	}
}

func generateResilienceSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Persistence retry and circuit breaking",
		Properties: map[string]*JSONSchema{
			"timeout": {
				Type:    "string",
				Format:  "duration",
				Default: "5s",
			},
			"retry": {
				Type:        "object",
				Description: "Retry configuration",
				Properties: map[string]*JSONSchema{
					"enabled": {
						Type:    "boolean",
						Default: false,
					},
					"max_attempts": {
						Type:    "integer",
						Minimum: floatPtr(1),
						Default: 3,
					},
					"initial_delay": {
						Type:    "string",
						Format:  "duration",
						Default: "100ms",
					},
					"max_delay": {
						Type:    "string",
						Format:  "duration",
						Default: "2s",
					},
					"multiplier": {
						Type:    "number",
						Minimum: floatPtr(1),
						Default: 2.0,
					},
				},
			},
			"circuit_breaker": {
				Type:        "object",
				Description: "Circuit breaker configuration",
				Properties: map[string]*JSONSchema{
					"enabled": {
						Type:    "boolean",
						Default: false,
					},
					"threshold": {
						Type:    "integer",
						Minimum: floatPtr(1),
						Default: 5,
					},
					"timeout": {
						Type:    "string",
						Format:  "duration",
						Default: "30s",
					},
				},
			},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}

// SchemaJSON returns the JSON Schema as a JSON string.
func SchemaJSON() (string, error) {
	schema := GenerateSchema()
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
