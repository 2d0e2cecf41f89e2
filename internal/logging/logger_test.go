package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestSetupLoggerLevels(t *testing.T) {
	// Save original logger to restore later
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
	}()

	testCases := []struct {
		name          string
		level         LogLevel
		debugVisible  bool
	}{
		{
			name:         "Debug level shows debug messages",
			level:        LevelDebug,
			debugVisible: true,
		},
		{
			name:         "Info level hides debug messages",
			level:        LevelInfo,
			debugVisible: false,
		},
		{
			name:         "Warn level hides debug messages",
			level:        LevelWarn,
			debugVisible: false,
		},
		{
			name:         "Invalid level defaults to info",
			level:        LogLevel("invalid"),
			debugVisible: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetupLogger(&buf, tc.level, "")

			Debug("debug message")
			got := strings.Contains(buf.String(), "debug message")
			if got != tc.debugVisible {
				t.Errorf("expected debug visibility %v, got %v", tc.debugVisible, got)
			}
		})
	}
}

func TestSetupLoggerJSONFormat(t *testing.T) {
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
	}()

	var buf bytes.Buffer
	SetupLogger(&buf, LevelInfo, "json")

	Info("structured message", "key", "value")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "structured message" {
		t.Errorf("expected msg field, got %v", record["msg"])
	}
	if record["key"] != "value" {
		t.Errorf("expected key attribute, got %v", record["key"])
	}
}

func TestMaskSensitive(t *testing.T) {
	testCases := []struct {
		name     string
		value    string
		expected string
	}{
		{
			name:     "Empty value",
			value:    "",
			expected: "<not set>",
		},
		{
			name:     "Short value",
			value:    "abcd",
			expected: "<set>",
		},
		{
			name:     "Long value keeps a prefix only",
			value:    "ghp_secrettoken",
			expected: "ghp_...***",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaskSensitive(tc.value); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestMaskSensitiveNeverLeaksSuffix(t *testing.T) {
	token := "ghp_1234567890abcdef"
	masked := MaskSensitive(token)
	if strings.Contains(masked, token[4:]) {
		t.Errorf("masked value %q leaks the token body", masked)
	}
}
