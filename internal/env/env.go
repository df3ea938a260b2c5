package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/toolguide/internal/envvar"
)

// Environment is the runtime environment the service runs in.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Test        Environment = "test"
)

// FromEnv reads the environment from TOOLGUIDE_ENV, defaulting to development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.ToolguideEnv))
}

// Parse maps a loose environment name onto a known Environment.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return Production
	case "test", "testing":
		return Test
	default:
		return Development
	}
}

// IsProduction reports whether e is the production environment.
func (e Environment) IsProduction() bool {
	return e == Production
}
