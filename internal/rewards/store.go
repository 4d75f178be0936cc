package rewards

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/cetteup/qwerty-client/internal/detector"
)

// configSchema is the fixed schema every client config must satisfy before
// it is used. Game names under actions are validated separately against the
// catalog, since the schema cannot reference it.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "logLevel": {"type": "string", "enum": ["trace", "debug", "info", "warn", "error"]},
    "autoFulfill": {"type": "boolean"},
    "refund": {"type": "boolean"},
    "rewards": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "id": {"type": "string"},
          "title": {"type": "string", "minLength": 1, "maxLength": 45},
          "cost": {"type": "integer", "minimum": 1},
          "actions": {
            "type": "object",
            "minProperties": 1,
            "additionalProperties": {
              "type": "object",
              "properties": {
                "type": {"type": "string", "enum": ["keypress"]},
                "value": {"type": "string", "minLength": 1}
              },
              "required": ["type", "value"],
              "additionalProperties": false
            }
          }
        },
        "required": ["title", "cost", "actions"],
        "additionalProperties": false
      }
    }
  },
  "required": ["rewards"],
  "additionalProperties": false
}`

var compiledSchema = jsonschema.MustCompileString("config.schema.json", configSchema)

// ConfigError reports a failure to load or validate the client config. Path
// points at the failing location: the file for I/O and parse errors, the
// offending config element for schema violations.
type ConfigError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %s: %s", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("config: %s: %s", e.Path, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LoadClientConfig reads, schema-validates and decodes the client config.
// Any failure is a *ConfigError; callers treat those as fatal.
func LoadClientConfig(path string) (*ClientConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Msg: "failed to read client config", Err: err}
	}

	var generic any
	if err = yaml.Unmarshal(raw, &generic); err != nil {
		return nil, &ConfigError{Path: path, Msg: "failed to parse client config", Err: err}
	}

	if err = validateSchema(generic); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := leafCause(ve)
			return nil, &ConfigError{
				Path: instancePath(leaf.InstanceLocation),
				Msg:  leaf.Message,
			}
		}
		return nil, &ConfigError{Path: path, Msg: "client config does not match schema", Err: err}
	}

	var cfg ClientConfig
	if err = yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Msg: "failed to decode client config", Err: err}
	}

	if err = validateGameNames(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveClientConfig rewrites the client config. Field order follows the
// struct declaration and the rewards sequence keeps its loaded order, so a
// rewrite only changes what reconciliation changed.
func SaveClientConfig(path string, cfg *ClientConfig) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return &ConfigError{Path: path, Msg: "failed to encode client config", Err: err}
	}
	if err = os.WriteFile(path, out, 0644); err != nil {
		return &ConfigError{Path: path, Msg: "failed to write client config", Err: err}
	}
	return nil
}

// validateSchema round-trips the decoded yaml through JSON so the validator
// sees the value types it expects.
func validateSchema(generic any) error {
	buf, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	var doc any
	if err = json.Unmarshal(buf, &doc); err != nil {
		return err
	}
	return compiledSchema.Validate(doc)
}

func validateGameNames(cfg *ClientConfig) error {
	known := map[string]struct{}{}
	for _, name := range detector.KnownGames() {
		known[name] = struct{}{}
	}
	for i, r := range cfg.Rewards {
		for _, game := range sortedKeys(r.Actions) {
			if _, ok := known[game]; !ok {
				return &ConfigError{
					Path: fmt.Sprintf("$.rewards[%d].actions.%s", i, game),
					Msg:  fmt.Sprintf("unknown game %q", game),
				}
			}
		}
	}
	return nil
}

// leafCause picks the most specific cause of a validation error across all
// branches: the leaf with the longest instance location carries the path and
// message worth showing to the user.
func leafCause(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	best := ve
	for _, cause := range ve.Causes {
		if leaf := leafCause(cause); len(leaf.InstanceLocation) >= len(best.InstanceLocation) {
			best = leaf
		}
	}
	return best
}

func instancePath(location string) string {
	if location == "" {
		return "$"
	}
	return "$" + strings.ReplaceAll(location, "/", ".")
}
