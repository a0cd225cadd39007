package subprocess

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupOneStdio_Null(t *testing.T) {
	res, err := setupOneStdio(context.Background(), Null{}, 0, true, defaultBufSize)
	require.NoError(t, err)
	require.Equal(t, KindNull, res.slot.Kind)
	require.Nil(t, res.closeAfter)
}

func TestSetupOneStdio_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	res, err := setupOneStdio(context.Background(), File{Path: path}, 1, false, defaultBufSize)
	require.NoError(t, err)
	require.Equal(t, KindFD, res.slot.Kind)
	require.NotNil(t, res.closeAfter)
	require.NoError(t, res.closeAfter())

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)
}

func TestSetupOneStdio_FileAppendVsTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("existing\n"), 0644))

	res, err := setupOneStdio(context.Background(), File{Path: path, Append: true}, 1, false, defaultBufSize)
	require.NoError(t, err)
	require.NoError(t, res.closeAfter())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "existing\n", string(content), "append mode must preserve existing content")

	res, err = setupOneStdio(context.Background(), File{Path: path}, 1, false, defaultBufSize)
	require.NoError(t, err)
	require.NoError(t, res.closeAfter())

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, content, "truncate mode must discard existing content")
}

func TestSetupOneStdio_PipeEndpoint(t *testing.T) {
	ep := NewPipeEndpoint()
	res, err := setupOneStdio(context.Background(), ep, 0, true, defaultBufSize)
	require.NoError(t, err)
	require.Equal(t, KindLoopHandle, res.slot.Kind)
	require.NotNil(t, ep.ParentWrite(), "child-readable slot leaves the parent the write end")
	require.Nil(t, ep.ParentRead())
	require.NoError(t, res.closeAfter())
}

func TestSetupOneStdio_BidirectionalPipeObjectLinksOnce(t *testing.T) {
	ep := NewPipeEndpoint()

	first, err := setupOneStdio(context.Background(), ep, 0, true, defaultBufSize)
	require.NoError(t, err)
	require.NotNil(t, first.closeAfter, "first use allocates the pipe and owns closing the child's copy")

	second, err := setupOneStdio(context.Background(), ep, 1, false, defaultBufSize)
	require.NoError(t, err, "a second slot sharing the same PipeEndpoint links to the existing pipe instead of erroring")
	require.Equal(t, KindLoopHandle, second.slot.Kind)
	require.Equal(t, ep.ParentWrite(), second.slot.File, "the second slot receives the end matching its own direction")
	require.Nil(t, second.closeAfter, "the caller owns both fds once a PipeEndpoint is shared this way")
}

func TestSetupOneStdio_PipeEndpointDirectionMismatchRejected(t *testing.T) {
	ep := NewPipeEndpoint()
	_, err := setupOneStdio(context.Background(), ep, 0, true, defaultBufSize)
	require.NoError(t, err)

	// Requesting the same direction again has no matching end to hand out.
	_, err = setupOneStdio(context.Background(), ep, 0, true, defaultBufSize)
	require.Error(t, err)
}

func TestSetupStdioVector_ClosesPartialOnFailure(t *testing.T) {
	ep := NewPipeEndpoint()
	badPath := filepath.Join(t.TempDir(), "nonexistent-dir", "out.txt")
	_, _, _, err := setupStdioVector(context.Background(), []Redirectable{
		ep,
		File{Path: badPath},
		Null{},
	}, defaultBufSize)
	require.Error(t, err)

	// Slot 0 allocated a pipe before slot 1 failed; its child-side read
	// end must already be closed, so writing to the parent end fails.
	_, werr := ep.ParentWrite().Write([]byte("x"))
	require.Error(t, werr, "the child end allocated for slot 0 must be closed on failure")
}

func TestSetupStdioVector_Defaults(t *testing.T) {
	slots, closers, syncs, err := setupStdioVector(context.Background(), []Redirectable{Null{}, Null{}, Null{}}, defaultBufSize)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	require.Empty(t, closers)
	require.Empty(t, syncs)
}
