package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	d := Defaults()
	require.Equal(t, 2*time.Second, d.KillGrace)
	require.Equal(t, 5*time.Second, d.ShutdownGrace)
	require.Equal(t, 32*1024, d.ForwarderBufferSize)
	require.Equal(t, "info", d.LogLevel)
}

func TestLoad_FallsBackToDefaultsWhenUnset(t *testing.T) {
	c := Load()
	require.Equal(t, Defaults().ShutdownGrace, c.ShutdownGrace)
}

func TestLoad_ReadsEnvOverride(t *testing.T) {
	t.Setenv("SUBPROCESS_KILL_GRACE", "7s")
	c := Load()
	require.Equal(t, 7*time.Second, c.KillGrace)
}
