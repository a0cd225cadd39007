package subprocess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func spawnSimple(t *testing.T, argv ...string) *Process {
	t.Helper()
	slots, closers, syncs, err := setupStdioVector(context.Background(), []Redirectable{Null{}, Null{}, Null{}}, defaultBufSize)
	require.NoError(t, err)
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()

	p, err := spawnOne(NewCommand(argv[0], argv[1:]...), slots, syncs)
	require.NoError(t, err)
	return p
}

func TestSpawnOne_Success(t *testing.T) {
	p := spawnSimple(t, "true")
	require.NoError(t, p.Wait(true))
	require.Equal(t, int64(0), p.ExitCode())
	require.False(t, p.Signaled())
	require.True(t, p.Exited())
}

func TestSpawnOne_NonZeroExit(t *testing.T) {
	p := spawnSimple(t, "false")
	require.NoError(t, p.Wait(true))
	require.NotEqual(t, int64(0), p.ExitCode())
}

func TestSpawnOne_EmptyArgv(t *testing.T) {
	_, err := spawnOne(CommandSpec{}, nil, nil)
	require.Error(t, err)
}

func TestSpawnOne_InvalidCommand(t *testing.T) {
	slots, closers, syncs, err := setupStdioVector(context.Background(), []Redirectable{Null{}, Null{}, Null{}}, defaultBufSize)
	require.NoError(t, err)
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()

	_, err = spawnOne(NewCommand("this-binary-does-not-exist-xyz123"), slots, syncs)
	require.Error(t, err)
}

func TestProcess_PidAfterExit(t *testing.T) {
	p := spawnSimple(t, "true")
	require.NoError(t, p.Wait(true))

	_, err := p.Pid()
	require.Error(t, err, "Pid() should fail once the handle is torn down")
}

func TestProcess_KillRunning(t *testing.T) {
	p := spawnSimple(t, "sleep", "10")
	require.True(t, p.Running())

	require.NoError(t, p.Kill(SIGKILL))
	require.NoError(t, p.Wait(true))
	require.True(t, p.Signaled())
	require.EqualValues(t, SIGKILL, p.TermSignal())
}

func TestProcess_KillAlreadyExited(t *testing.T) {
	p := spawnSimple(t, "true")
	require.NoError(t, p.Wait(true))

	// ESRCH is treated as success (spec.md §4.6).
	require.NoError(t, p.Kill(SIGTERM))
}
