package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veridex-ai/veridex/internal/config"
)

func TestApplyPortOverride(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		cfgPort  string
		expected string
	}{
		{
			name:     "no flag keeps config port",
			args:     nil,
			cfgPort:  "9090",
			expected: "9090",
		},
		{
			name:     "flag overrides config port",
			args:     []string{"--port", "3000"},
			cfgPort:  "9090",
			expected: "3000",
		},
		{
			name:     "flag equal to default still overrides config port",
			args:     []string{"--port", "8080"},
			cfgPort:  "9090",
			expected: "8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := ServeCmd()
			require.NoError(t, cmd.Flags().Parse(tt.args))

			cfg := &config.Config{Port: tt.cfgPort}
			applyPortOverride(cmd, cfg)

			assert.Equal(t, tt.expected, cfg.Port)
		})
	}
}
