package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Warning("processor", "missing channel file", map[string]interface{}{"set": "gast_1"})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line: %v", err)
	}
	if entry["component"] != "processor" {
		t.Errorf("Expected component field, got %v", entry["component"])
	}
	if entry["set"] != "gast_1" {
		t.Errorf("Expected set field, got %v", entry["set"])
	}
	if entry["level"] != "warn" {
		t.Errorf("Expected warn level, got %v", entry["level"])
	}
}

func TestZerologAdapterLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.ErrorLevel)

	log.Info("scanner", "hidden", nil)
	if buf.Len() != 0 {
		t.Fatalf("Info should be filtered at error level, got %q", buf.String())
	}

	log.Error("scanner", errors.New("boom"), nil)
	if !bytes.Contains(buf.Bytes(), []byte("boom")) {
		t.Errorf("Expected error text in output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
