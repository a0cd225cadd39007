// Package config resolves the tunables the specification leaves as
// implementation defaults: the open(f, ...) kill-grace timer, the
// forwarder copy buffer size, and the default SIGTERM→SIGKILL grace
// period. Values are loaded with viper from environment variables
// (prefix SUBPROCESS_) with coded fallbacks, mirroring the teacher
// corpus's env-driven config loaders. The subprocess package itself does
// not call Load: it reads KillGrace from Defaults() and uses its own
// fixed forwarder buffer size.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the subsystem's runtime tunables.
type Config struct {
	// KillGrace is how long open(f, ...)'s cleanup path waits after
	// closing stdin before sending SIGTERM to a still-running process.
	// spec.md §4.7 fixes this at 2 seconds. WithOpen takes it from
	// Defaults(), so an environment override loaded by Load does not
	// change WithOpen's timer.
	KillGrace time.Duration
	// ShutdownGrace is a SIGTERM→SIGKILL escalation window. Nothing in
	// this module reads it; Kill sends a single signal with no
	// escalation.
	ShutdownGrace time.Duration
	// ForwarderBufferSize is a copy buffer size for forwarder tasks.
	// The forwarders this module starts do not read it; they use the
	// subprocess package's own 32 KiB constant.
	ForwarderBufferSize int
	// LogLevel and LogFormat configure internal/obslog.
	LogLevel  string
	LogFormat string
}

// Defaults returns the coded fallback configuration.
func Defaults() Config {
	return Config{
		KillGrace:           2 * time.Second,
		ShutdownGrace:       5 * time.Second,
		ForwarderBufferSize: 32 * 1024,
		LogLevel:            "info",
		LogFormat:           "json",
	}
}

// Load resolves Config from the environment, prefixed SUBPROCESS_
// (e.g. SUBPROCESS_KILL_GRACE=3s), falling back to Defaults() for
// anything unset.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("SUBPROCESS")
	v.AutomaticEnv()

	def := Defaults()
	v.SetDefault("kill_grace", def.KillGrace)
	v.SetDefault("shutdown_grace", def.ShutdownGrace)
	v.SetDefault("forwarder_buffer_size", def.ForwarderBufferSize)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)

	return Config{
		KillGrace:           v.GetDuration("kill_grace"),
		ShutdownGrace:       v.GetDuration("shutdown_grace"),
		ForwarderBufferSize: v.GetInt("forwarder_buffer_size"),
		LogLevel:            v.GetString("log_level"),
		LogFormat:           v.GetString("log_format"),
	}
}
