package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *LoggerConfig
		debugOn bool
	}{
		{name: "nil config", cfg: nil, debugOn: false},
		{name: "production", cfg: &LoggerConfig{Debug: false}, debugOn: false},
		{name: "debug", cfg: &LoggerConfig{Debug: true}, debugOn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, l)
			assert.Equal(t, tt.debugOn, l.Core().Enabled(zapcore.DebugLevel))
		})
	}
}
