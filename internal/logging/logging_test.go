package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("compositor")

	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger.Info("frame composed", "width", 1280)

	out := buf.String()
	if !strings.Contains(out, "msg=\"frame composed\"") {
		t.Fatalf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, "component=compositor") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "width=1280") {
		t.Fatalf("expected width field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("encoder")

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestWithSessionAttachesField(t *testing.T) {
	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger := WithSession(L("recorder"), "rec-42")
	logger.Info("started")

	out := buf.String()
	if !strings.Contains(out, "session=rec-42") {
		t.Fatalf("expected session field, got: %s", out)
	}
}

func TestRotatingWriterRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inkrec.log")

	rw, err := NewRotatingWriter(path, 1, 2)
	if err != nil {
		t.Fatalf("NewRotatingWriter: %v", err)
	}
	defer rw.Close()

	// Force a rotation by writing past 1MB.
	chunk := bytes.Repeat([]byte("x"), 64*1024)
	for i := 0; i < 20; i++ {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("expected rotated backup file: %v", err)
	}
}
