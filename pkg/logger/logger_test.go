package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrank/pkg/config"
)

func TestNew(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.NotNil(t, log.GetZerolog())
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "shout"})
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"", zerolog.InfoLevel, false},
		{"nope", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := parseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestTestLoggerCapturesMessages(t *testing.T) {
	log := NewTestLogger()

	log.Info("starting up")
	log.WithField("uri", "at://x").Warn("lookup failed")
	log.ErrorWithFields("fetch failed", map[string]interface{}{"cursor": "abc"})

	messages := log.Messages()
	require.Len(t, messages, 3)

	assert.True(t, log.HasMessage("INFO", "starting"))
	assert.True(t, log.HasMessage("WARN", "lookup failed"))
	assert.True(t, log.HasMessage("ERROR", "fetch failed"))
	assert.False(t, log.HasMessage("ERROR", "lookup failed"))

	assert.Equal(t, "at://x", messages[1].Fields["uri"])
	assert.Equal(t, "abc", messages[2].Fields["cursor"])
}

func TestTestLoggerChildForwardsToParent(t *testing.T) {
	parent := NewTestLogger()
	child := parent.WithFields(map[string]interface{}{"component": "ranker"})

	child.Info("child message")
	child.WithError(assert.AnError).Error("boom")

	messages := parent.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "ranker", messages[0].Fields["component"])
	assert.Equal(t, assert.AnError.Error(), messages[1].Fields["error"])
}
