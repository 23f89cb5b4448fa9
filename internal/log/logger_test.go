package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput("warn", true, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("session_id", "s1").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single json line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["session_id"] != "s1" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
