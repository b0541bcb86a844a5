package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_AttachesService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Output: &buf, Service: "inventory-api"})
	log.Info().Msg("hello")

	var ev map[string]any
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if ev["service"] != "inventory-api" || ev["message"] != "hello" {
		t.Fatalf("unexpected event: %v", ev)
	}
}

func TestInit_Singleton(t *testing.T) {
	t.Cleanup(Reset)
	Reset()

	var first, second bytes.Buffer
	Init(Options{Output: &first})
	Init(Options{Output: &second})
	l := Get()
	l.Info().Msg("x")

	if first.Len() == 0 || second.Len() != 0 {
		t.Fatalf("expected only the first Init to take effect")
	}
}
