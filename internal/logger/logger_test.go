package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetLevel("INFO")
		SetFormat("text")
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel("warn")

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 2")
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t)
	SetLevel("debug")
	SetFormat("JSON")

	Debug("linked %s", "a")

	var line map[string]string
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "DEBUG", line["level"])
	assert.Equal(t, "linked a", line["msg"])
}

func TestOpen(t *testing.T) {
	w, err := Open("stderr")
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, w)

	path := t.TempDir() + "/treefs.log"
	w, err = Open(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.(io.Closer).Close())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
