package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neorecon/internal/config"
)

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&config.LogConfig{Level: "loud", Output: "discard"})
	assert.Error(t, err)

	_, err = New(&config.LogConfig{Level: "info", Format: "xml", Output: "discard"})
	assert.Error(t, err)

	_, err = New(&config.LogConfig{Level: "info", Output: "file"})
	assert.Error(t, err)
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "neorecon.log")
	lm, err := InitLogger(&config.LogConfig{Level: "info", Format: "json", Output: "file", FilePath: path, MaxSize: 1})
	require.NoError(t, err)
	t.Cleanup(func() { current.Store(nil); lm.Close() })

	LogSystemEvent("Sync", "Refresh", "list refreshed", InfoLevel, map[string]interface{}{"list": "username"})
	Debugf("hidden %d", 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "system", rec["type"])
	assert.Equal(t, "username", rec["list"])
	assert.Equal(t, "System event: Sync - Refresh", rec["message"])
	assert.Contains(t, rec, "timestamp")
}

func TestProbeEntries(t *testing.T) {
	lm, err := New(&config.LogConfig{Level: "debug", Format: "json", Output: "discard"})
	require.NoError(t, err)
	var buf bytes.Buffer
	lm.Logger().SetOutput(&buf)
	current.Store(lm)
	t.Cleanup(func() { current.Store(nil) })

	LogProbe(ProbeLogEntry{Site: "GitHub", URL: "https://github.com/alice", Status: "FOUND", StatusCode: 200, Duration: 12})
	LogProbe(ProbeLogEntry{Site: "Reddit", URL: "https://reddit.com/u/alice", Status: "ERROR", Error: "timeout"})
	LogAccess("POST", "/api/v1/scan/username", 200, 30*time.Millisecond, "127.0.0.1")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)

	var found, failed, access map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &found))
	require.NoError(t, json.Unmarshal(lines[1], &failed))
	require.NoError(t, json.Unmarshal(lines[2], &access))

	assert.Equal(t, "debug", found["level"])
	assert.Equal(t, "probe", found["type"])
	assert.Equal(t, "warning", failed["level"])
	assert.Equal(t, "timeout", failed["error"])
	assert.Equal(t, "access", access["type"])
	assert.EqualValues(t, 30, access["response_time"])
}

func TestHelpersWithoutLogger(t *testing.T) {
	current.Store(nil)
	assert.NotPanics(t, func() {
		Infof("x %s", "y")
		Warnf("x")
		LogProbe(ProbeLogEntry{Site: "s"})
		WithFields(nil).Info("dropped")
	})
}
