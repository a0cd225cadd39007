package subprocess

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForwarder_ChildReadableCopiesReaderIntoPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)

	task := startForwarder(context.Background(), true, w, Stream{Reader: strings.NewReader("payload")}, defaultBufSize)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))
	require.NoError(t, task.join())
}

func TestForwarder_ChildWritableCopiesPipeIntoWriter(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)

	var out strings.Builder
	task := startForwarder(context.Background(), false, r, Stream{Writer: &out}, defaultBufSize)

	_, err = w.WriteString("from child")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.NoError(t, task.join())
	require.Equal(t, "from child", out.String())
}

func TestForwarder_JoinIsIdempotent(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	require.NoError(t, w.Close())

	task := startForwarder(context.Background(), false, r, Stream{}, defaultBufSize)

	require.NoError(t, task.join())
	require.NoError(t, task.join(), "a second join on the same task must not block")
}
