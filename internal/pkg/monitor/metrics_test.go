package monitor

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollect(t *testing.T) {
	s := Collect(0)
	assert.NotEmpty(t, s.Timestamp)
	assert.Equal(t, runtime.GOOS, s.Host.OS)
	assert.Positive(t, s.Host.CPUCores)
	assert.Equal(t, int32(os.Getpid()), s.Process.PID)
	assert.Positive(t, s.Process.Goroutines)
	assert.GreaterOrEqual(t, s.System.MemoryUsage, 0.0)
}
