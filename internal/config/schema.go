package config

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
)

var (
	cfgSchemaOnce sync.Once
	cfgSchema     []byte
	cfgSchemaErr  error
)

// JSONSchema returns the JSON Schema describing the loom configuration file,
// derived from the Config struct's yaml tags. Every field is optional; the
// serve command validates the Slack section separately because only it needs
// those fields.
func JSONSchema() ([]byte, error) {
	cfgSchemaOnce.Do(func() {
		reflector := &jsonschema.Reflector{
			FieldNameTag:               "yaml",
			RequiredFromJSONSchemaTags: true,
		}
		cfgSchema, cfgSchemaErr = json.MarshalIndent(reflector.Reflect(&Config{}), "", "  ")
	})
	return cfgSchema, cfgSchemaErr
}
