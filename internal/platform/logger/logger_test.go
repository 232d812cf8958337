package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("hello"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/info", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "request" || entry["path"] != "/api/info" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["size"] != float64(5) {
		t.Errorf("expected status 418 size 5, got %v %v", entry["status"], entry["size"])
	}
}

func TestNewWithWriter_text(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "debug", "text").Debug("hello", slog.String("k", "v"))
	if !bytes.Contains(buf.Bytes(), []byte("msg=hello")) || !bytes.Contains(buf.Bytes(), []byte("k=v")) {
		t.Errorf("unexpected text output: %s", buf.String())
	}
}
