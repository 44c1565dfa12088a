package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	cases := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			l := NewWithWriter(Config{Level: tc.level}, &bytes.Buffer{})
			assert.Equal(t, tc.want, l.GetLevel())
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "warn"}, &buf)
	l.Info().Msg("hidden")
	l.Warn().Str("symbol", "AAPL").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"symbol":"AAPL"`)
	assert.Contains(t, out, `"message":"shown"`)
}

func TestPrettyOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Pretty: true}, &buf)
	l.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
	assert.NotContains(t, buf.String(), `"message"`)
}
