package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return &buf
}

func TestDebugAndInfoGatedByVerbose(t *testing.T) {
	buf := capture(t)

	Debug("scanning %s", "doc-a.txt")
	Info("plan has %d items", 3)
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Debug("scanning %s", "doc-a.txt")
	Info("plan has %d items", 3)
	assert.Contains(t, buf.String(), "[DEBUG] scanning doc-a.txt")
	assert.Contains(t, buf.String(), "[INFO] plan has 3 items")
}

func TestWarnPrintsWithoutVerbose(t *testing.T) {
	buf := capture(t)

	Warn("sidecar write failed for %s", "doc-a")
	assert.Equal(t, "[WARN] sidecar write failed for doc-a\n", buf.String())
}
