package env

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekisa-team/toolguide/internal/envvar"
)

func TestParse(t *testing.T) {
	cases := map[string]Environment{
		"":            Development,
		"dev":         Development,
		"production":  Production,
		" PROD ":      Production,
		"test":        Test,
		"testing":     Test,
		"staging-eu1": Development,
	}

	for in, want := range cases {
		assert.Equal(t, want, Parse(in), "input %q", in)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(envvar.ToolguideEnv, "production")
	assert.True(t, FromEnv().IsProduction())
}
