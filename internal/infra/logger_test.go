package infra

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		level  string
		expect zerolog.Level
	}{
		{"development debug", "development", "", zerolog.DebugLevel},
		{"production info", "production", "", zerolog.InfoLevel},
		{"override", "production", "WARN", zerolog.WarnLevel},
		{"invalid override ignored", "production", "loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.level)
			if got := NewLogger(tt.env).GetLevel(); got != tt.expect {
				t.Fatalf("level = %s, want %s", got, tt.expect)
			}
		})
	}
}
