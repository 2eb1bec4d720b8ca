package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) (*WorkspaceFS, string) {
	t.Helper()
	root := t.TempDir()
	w := New(root, time.Minute, 10)
	t.Cleanup(func() { w.Close() })
	return w, root
}

func TestWriteReadRoundTrip(t *testing.T) {
	w, root := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, w.WriteFile(ctx, "sub/dir/file.txt", []byte("content")))

	data, err := w.ReadFile(ctx, "sub/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	data, err = os.ReadFile(filepath.Join(root, "sub", "dir", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestAbsPath_RelativeClampedToRoot(t *testing.T) {
	w, root := newTestFS(t)

	// Secure join resolves traversal inside the root instead of escaping it.
	abs, err := w.absPath("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "etc", "passwd"), abs)
}

func TestStatAndExists(t *testing.T) {
	w, _ := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, w.WriteFile(ctx, "a.txt", []byte("xy")))

	info, err := w.Stat(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Size)
	assert.False(t, info.IsDir)

	exists, err := w.Exists(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = w.Exists(ctx, "b.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListDir_HidesAuditState(t *testing.T) {
	w, root := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(filepath.Join(root, ".direct"), 0755))
	require.NoError(t, w.WriteFile(ctx, "visible.txt", []byte("x")))

	entries, err := w.ListDir(ctx, ".")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(entries[0].Path), "visible.txt")
}

func TestListDir_CacheServesRepeatedCalls(t *testing.T) {
	w, _ := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, w.WriteFile(ctx, "a.txt", []byte("x")))

	first, err := w.ListDir(ctx, ".")
	require.NoError(t, err)

	second, err := w.ListDir(ctx, ".")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestInvalidateDirCache(t *testing.T) {
	w, root := newTestFS(t)
	ctx := context.Background()

	require.NoError(t, w.WriteFile(ctx, "a.txt", []byte("x")))
	_, err := w.ListDir(ctx, ".")
	require.NoError(t, err)

	// Bypass WriteFile so fsnotify delivery is not required for this test.
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("y"), 0644))
	w.InvalidateDirCache(".")

	entries, err := w.ListDir(ctx, ".")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMkdirAll(t *testing.T) {
	w, root := newTestFS(t)

	require.NoError(t, w.MkdirAll(context.Background(), "x/y/z", 0755))

	info, err := os.Stat(filepath.Join(root, "x", "y", "z"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
