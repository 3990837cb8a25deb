package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonasBSD/conserve/pkg/archiveerror"
)

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	tr := New(t.TempDir())

	require.NoError(t, tr.Write(ctx, "d/ab/abcdef", []byte("payload")))
	got, err := tr.Read(ctx, "d/ab/abcdef")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestReadMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	tr := New(t.TempDir())

	_, err := tr.Read(ctx, "missing")
	assert.True(t, archiveerror.Is(err, archiveerror.KindNotFound))
}

func TestReadRange(t *testing.T) {
	ctx := context.Background()
	tr := New(t.TempDir())

	require.NoError(t, tr.Write(ctx, "obj", []byte("0123456789")))
	got, err := tr.ReadRange(ctx, "obj", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("234"), got)
}

func TestListDirSeparatesFilesAndDirs(t *testing.T) {
	ctx := context.Background()
	tr := New(t.TempDir())

	require.NoError(t, tr.Write(ctx, "b0000/BANDHEAD", []byte("{}")))
	require.NoError(t, tr.CreateDir(ctx, "b0000/i"))

	files, dirs, err := tr.ListDir(ctx, "b0000")
	require.NoError(t, err)
	assert.Equal(t, []string{"BANDHEAD"}, files)
	assert.Equal(t, []string{"i"}, dirs)
}

func TestExistsAndRemove(t *testing.T) {
	ctx := context.Background()
	tr := New(t.TempDir())

	ok, err := tr.Exists(ctx, "obj")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tr.Write(ctx, "obj", []byte("x")))
	ok, err = tr.Exists(ctx, "obj")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, tr.RemoveFile(ctx, "obj"))
	ok, _ = tr.Exists(ctx, "obj")
	assert.False(t, ok)
}

func TestSubTransportIsRooted(t *testing.T) {
	ctx := context.Background()
	tr := New(t.TempDir())
	sub := tr.SubTransport("nested")

	require.NoError(t, sub.Write(ctx, "file", []byte("v")))
	got, err := tr.Read(ctx, "nested/file")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestWriteIsAtomicOverwrite(t *testing.T) {
	ctx := context.Background()
	tr := New(t.TempDir())

	require.NoError(t, tr.Write(ctx, "obj", []byte("first")))
	require.NoError(t, tr.Write(ctx, "obj", []byte("second")))

	got, err := tr.Read(ctx, "obj")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}
