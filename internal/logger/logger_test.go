package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_Silent_ByDefault(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(false)

	Debug("hidden %d", 1)
	Info("hidden")
	Warn("hidden")

	assert.Empty(t, buf.String())
}

func TestLogger_Verbose(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(true)
	defer SetVerbose(false)

	Debug("d %d", 7)
	Info("i")
	Warn("w")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] d 7")
	assert.Contains(t, out, "[INFO] i")
	assert.Contains(t, out, "[WARN] w")
	assert.True(t, IsVerbose())
}
