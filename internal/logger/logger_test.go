package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitWriterLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", true)
	defer Init("info", false)

	Info("hidden")
	Warn("shown", "game_id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "shown" || rec["service"] != "stellarcade" || rec["game_id"] != float64(7) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestWithContextCarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", false)
	defer Init("info", false)

	ctx := ContextWith(context.Background(), "request_id", "r-1")
	ctx = ContextWith(ctx, "caller", "GALICE")
	WithContext(ctx).Debug("handled")

	out := buf.String()
	for _, want := range []string{"request_id=r-1", "caller=GALICE", "msg=handled"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", " WARNING ": "WARN", "error": "ERROR", "bogus": "INFO", "": "INFO"}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
