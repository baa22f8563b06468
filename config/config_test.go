package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsFillGaps(t *testing.T) {
	path := writeConfig(t, "redis:\n  addr: \"redis:6380\"\n")

	require.NoError(t, Load(path))
	assert.Equal(t, "redis:6380", C.Redis.Addr)
	assert.Equal(t, ":8080", C.Server.Port)
	assert.Equal(t, "redis", C.Storage.Driver)
	assert.Equal(t, 5, C.Join.MaxAttempts)
	assert.True(t, C.Join.Waitlist)
	assert.True(t, C.Join.DealOnThreshold)
	assert.Equal(t, 3*time.Second, C.Join.WriteTimeout)
	assert.Equal(t, 2*time.Second, C.Broadcast.DeliveryTimeout)
	assert.Equal(t, "info", C.Log.Level)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: memory
join:
  max_attempts: 2
  waitlist: false
  write_timeout: 500ms
broadcast:
  delivery_timeout: 1s
`)

	require.NoError(t, Load(path))
	assert.Equal(t, "memory", C.Storage.Driver)
	assert.Equal(t, 2, C.Join.MaxAttempts)
	assert.False(t, C.Join.Waitlist)
	assert.Equal(t, 500*time.Millisecond, C.Join.WriteTimeout)
	assert.Equal(t, time.Second, C.Broadcast.DeliveryTimeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "redis:\n  addr: \"from-file:6379\"\n")
	t.Setenv("HOLDEM_REDIS_ADDR", "from-env:6379")
	t.Setenv("HOLDEM_JOIN_MAX_ATTEMPTS", "9")

	require.NoError(t, Load(path))
	assert.Equal(t, "from-env:6379", C.Redis.Addr)
	assert.Equal(t, 9, C.Join.MaxAttempts)
}

func TestLoad_MissingFile(t *testing.T) {
	assert.Error(t, Load(filepath.Join(t.TempDir(), "absent.yaml")))
}
