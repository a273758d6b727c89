package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/freebase2wikidata/internal/model"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(model.LogConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Info("converted", "claims", 3)

	out := buf.String()
	if !strings.Contains(out, `"msg":"converted"`) {
		t.Errorf("expected json message, got %q", out)
	}
	if !strings.Contains(out, `"claims":3`) {
		t.Errorf("expected claims attribute, got %q", out)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(model.LogConfig{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	if _, err := New(model.LogConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(model.LogConfig{Format: "xml"}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestSetup_FileOutput(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "run.log")
	closeFn, err := Setup(model.LogConfig{Level: "debug", Format: "text", Output: "file", FilePath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slog.Debug("to file")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := Setup(model.LogConfig{Output: "file"}); err == nil {
		t.Error("expected error when file path is missing")
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithContext(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("expected stored logger")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger for empty context")
	}

	WithError(l, errors.New("boom")).Info("failed")
	if !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("expected error attribute, got %q", buf.String())
	}
}
