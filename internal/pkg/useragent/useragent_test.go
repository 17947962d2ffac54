package useragent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndPick(t *testing.T) {
	path := filepath.Join(t.TempDir(), "useragents.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nAgent/1\n\nAgent/2\n"), 0o644))

	agents, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Agent/1", "Agent/2"}, agents)

	assert.Contains(t, agents, Pick(path))
}

func TestPickFallback(t *testing.T) {
	ua := Pick(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Contains(t, fallback, ua)
}
