package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNew_RequiresDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.txt")
	writeFile(t, file, "x")
	_, err = New(file)
	assert.Error(t, err)
}

func TestSource_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "beta content")
	writeFile(t, filepath.Join(dir, "a.md"), "alpha content")
	writeFile(t, filepath.Join(dir, "nested", "c.txt"), "gamma content")
	writeFile(t, filepath.Join(dir, "ignored.pdf"), "binary")
	writeFile(t, filepath.Join(dir, "empty.txt"), "   \n")
	writeFile(t, filepath.Join(dir, ".hidden", "d.txt"), "hidden")

	src, err := New(dir)
	require.NoError(t, err)

	docs, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "a.md", docs[0].Source)
	assert.Equal(t, "alpha content", docs[0].Content)
	assert.Equal(t, "b.txt", docs[1].Source)
	assert.Equal(t, filepath.Join("nested", "c.txt"), docs[2].Source)
	assert.Equal(t, filepath.Join(dir, "b.txt"), docs[1].Metadata["path"])
}

func TestSource_Load_EmptyDirectory(t *testing.T) {
	src, err := New(t.TempDir())
	require.NoError(t, err)

	docs, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSource_Load_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "content")

	src, err := New(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_Watch_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	src, err := New(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := src.Watch(ctx)
	require.NoError(t, err)

	target := filepath.Join(dir, "new.txt")
	writeFile(t, target, "fresh corpus text")

	select {
	case got := <-changes:
		assert.Equal(t, target, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no change event received")
	}
}

func TestSource_Watch_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	src, err := New(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := src.Watch(ctx)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, "notes.bin"), "not corpus")

	select {
	case got := <-changes:
		t.Fatalf("unexpected event for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSource_Watch_StopsOnCancel(t *testing.T) {
	src, err := New(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := src.Watch(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-changes:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(3 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestSource_LoadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sub", "notes.md"), "beta blockers")
	src, err := New(dir)
	require.NoError(t, err)

	// Absolute path, as Watch reports it.
	doc, err := src.LoadFile(context.Background(), filepath.Join(dir, "sub", "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("sub", "notes.md"), doc.Source)
	assert.Equal(t, "beta blockers", doc.Content)

	// Relative to the corpus root.
	doc, err = src.LoadFile(context.Background(), filepath.Join("sub", "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("sub", "notes.md"), doc.Source)
}

func TestSource_LoadFile_RejectsNonCorpusFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "data.bin"), "x")
	src, err := New(dir)
	require.NoError(t, err)

	_, err = src.LoadFile(context.Background(), "data.bin")
	assert.Error(t, err)
}

func TestSource_LoadFile_MissingFile(t *testing.T) {
	src, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = src.LoadFile(context.Background(), "gone.md")
	assert.Error(t, err)
}
