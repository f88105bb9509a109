package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		want          zapcore.Level
	}{
		{"", "", zapcore.InfoLevel},
		{"debug", "json", zapcore.DebugLevel},
		{"warn", "console", zapcore.WarnLevel},
		{"error", "console", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			log, lvl, err := New(tt.level, tt.format)
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.Equal(t, tt.want, lvl.Level())
			assert.True(t, log.Core().Enabled(tt.want))
		})
	}
}

func TestNewLevelIsAdjustable(t *testing.T) {
	log, lvl, err := New("info", "json")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))

	lvl.SetLevel(zapcore.DebugLevel)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsBadInput(t *testing.T) {
	_, _, err := New("loud", "json")
	assert.Error(t, err)

	_, _, err = New("info", "xml")
	assert.ErrorIs(t, err, ErrFormatUnknown)
}
