package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/ekisa-team/toolguide/internal/envvar"
)

//go:embed toolguide.v1.schema.json
var embeddedSchema string

const embeddedSchemaURL = "toolguide.v1.schema.json"

// LoadAndValidate loads and validates the configuration. An empty schemaPath
// selects the schema compiled into the binary.
func LoadAndValidate(path, schemaPath string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config: %w", err)
	}

	return Parse(data, schemaPath)
}

// Parse validates raw YAML against the schema and decodes it over the defaults.
func Parse(data []byte, schemaPath string) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	schema, err := compileSchema(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed to compile schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: config validation failed: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal into Config struct: %w", err)
	}

	ApplyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return config, nil
}

func compileSchema(schemaPath string) (*jsonschema.Schema, error) {
	if schemaPath == "" {
		return jsonschema.CompileString(embeddedSchemaURL, embeddedSchema)
	}
	return jsonschema.Compile(schemaPath)
}

// ApplyEnv overlays secrets and endpoints from the environment. Values set in
// the environment win over the file so keys never have to live in YAML.
func ApplyEnv(c *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Providers.Gemini.APIKey, envvar.ToolguideGeminiAPIKey)
	set(&c.Providers.YarnGPT.APIKey, envvar.ToolguideYarnGPTAPIKey)
	set(&c.Providers.Tavily.APIKey, envvar.ToolguideTavilyAPIKey)
	set(&c.Providers.Supabase.URL, envvar.ToolguideSupabaseURL)
	set(&c.Providers.Supabase.AnonKey, envvar.ToolguideSupabaseAnonKey)
	set(&c.Providers.Supabase.ServiceKey, envvar.ToolguideSupabaseServiceKey)
	set(&c.Providers.Supabase.JWTSecret, envvar.ToolguideSupabaseJWTSecret)
	set(&c.Logging.Level, envvar.ToolguideLogLevel)
}
