package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestInitAndLevelString(t *testing.T) {
	Init("debug")
	if got := LevelString(); got != "debug" {
		t.Fatalf("LevelString() = %q, want %q", got, "debug")
	}
	Init("WARN")
	if got := LevelString(); got != "warn" {
		t.Fatalf("LevelString() = %q, want %q", got, "warn")
	}
	Init("nonsense")
	if got := LevelString(); got != "info" {
		t.Fatalf("LevelString() = %q, want %q for unknown input", got, "info")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	orig := out
	out = log.New(&buf, "", 0)
	defer func() { out = orig }()

	Init("warn")
	Debugf("debug-msg")
	Infof("info-msg")
	Warnf("warn-msg")
	Errorf("error-msg")

	got := buf.String()
	if strings.Contains(got, "debug-msg") || strings.Contains(got, "info-msg") {
		t.Fatalf("messages below warn should be suppressed: %q", got)
	}
	if !strings.Contains(got, "warn-msg") || !strings.Contains(got, "error-msg") {
		t.Fatalf("warn/error messages missing: %q", got)
	}

	// back at info level, info passes again
	Init("info")
	buf.Reset()
	Infof("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("info message expected at info level, got: %q", buf.String())
	}
}
