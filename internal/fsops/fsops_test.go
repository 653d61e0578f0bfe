package fsops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twinfm/internal/apperr"
	"twinfm/internal/cancel"
	"twinfm/internal/jobs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// Scenario A: Copy + Skip preserves destination.
func TestCopySkipPreservesDestination(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "demo.txt"), "source")
	writeFile(t, filepath.Join(dstDir, "demo.txt"), "destination")

	err := Copy([]string{filepath.Join(srcDir, "demo.txt")}, dstDir, jobs.Skip, cancel.NewFlag(), NopSink{})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dstDir, "demo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "destination", string(got))
}

// Scenario B: Copy + Rename creates alternate.
func TestCopyRenameCreatesAlternate(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "demo.txt"), "source")
	writeFile(t, filepath.Join(dstDir, "demo.txt"), "destination")

	err := Copy([]string{filepath.Join(srcDir, "demo.txt")}, dstDir, jobs.Rename_, cancel.NewFlag(), NopSink{})
	require.NoError(t, err)

	orig, err := os.ReadFile(filepath.Join(dstDir, "demo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "destination", string(orig))

	alt, err := os.ReadFile(filepath.Join(dstDir, "demo.txt.copy"))
	require.NoError(t, err)
	assert.Equal(t, "source", string(alt))
}

// Testable property 6: ascending .copy/.copy2/.copy3 suffixes.
func TestResolveDestinationAscendingSuffixes(t *testing.T) {
	dstDir := t.TempDir()
	writeFile(t, filepath.Join(dstDir, "demo.txt"), "x")
	writeFile(t, filepath.Join(dstDir, "demo.txt.copy"), "x")

	dest, skip, err := ResolveDestination(filepath.Join(t.TempDir(), "demo.txt"), dstDir, jobs.Rename_)
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, filepath.Join(dstDir, "demo.txt.copy2"), dest)
}

// Scenario D: Move rejects self-nest.
func TestMoveRejectsSelfNest(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, filepath.Join(srcDir, "a.txt"), "x")

	err := Move([]string{srcDir}, srcDir, jobs.Overwrite, cancel.NewFlag(), NopSink{})
	require.Error(t, err)
	je, ok := err.(*apperr.JobError)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidInput, je.Code)
	assert.Contains(t, je.Message, "cannot move directory into itself")

	// source tree unchanged
	got, readErr := os.ReadFile(filepath.Join(srcDir, "a.txt"))
	require.NoError(t, readErr)
	assert.Equal(t, "x", string(got))
}

func TestCopyRejectsDestinationInsideSource(t *testing.T) {
	srcDir := t.TempDir()
	nested := filepath.Join(srcDir, "nested")
	require.NoError(t, os.Mkdir(nested, 0o755))

	err := Copy([]string{srcDir}, nested, jobs.Overwrite, cancel.NewFlag(), NopSink{})
	require.Error(t, err)
	je, ok := err.(*apperr.JobError)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeInvalidInput, je.Code)
}

// Testable property 7: symlink preservation.
func TestCopyPreservesSymlink(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	target := filepath.Join(srcDir, "real.txt")
	writeFile(t, target, "hello")
	link := filepath.Join(srcDir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	err := Copy([]string{link}, dstDir, jobs.Overwrite, cancel.NewFlag(), NopSink{})
	require.NoError(t, err)

	dest := filepath.Join(dstDir, "link.txt")
	info, err := os.Lstat(dest)
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeSymlink != 0)

	gotTarget, err := os.Readlink(dest)
	require.NoError(t, err)
	assert.Equal(t, target, gotTarget)
}

func TestCopyDirectoryRecursive(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	sub := filepath.Join(srcDir, "tree", "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, filepath.Join(sub, "f.txt"), "nested")

	err := Copy([]string{filepath.Join(srcDir, "tree")}, dstDir, jobs.Overwrite, cancel.NewFlag(), NopSink{})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dstDir, "tree", "sub", "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "nested", string(got))
}

func TestDeleteDepthFirst(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, filepath.Join(sub, "f.txt"), "x")

	err := Delete([]string{filepath.Join(dir, "a")}, cancel.NewFlag(), NopSink{})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "a"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestMeasureCountsSymlinkAsZeroBytesOneItem(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	writeFile(t, target, "0123456789")
	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(target, link))

	items, bytes, err := Measure([]string{link}, cancel.NewFlag())
	require.NoError(t, err)
	assert.Equal(t, int64(1), items)
	assert.Equal(t, int64(0), bytes)
}

func TestReadDirPrependsParentAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "x")
	writeFile(t, filepath.Join(dir, "a.txt"), "x")

	entries, err := ReadDir(dir, false, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "..", entries[0].Name)
	assert.Equal(t, "a.txt", entries[1].Name)
	assert.Equal(t, "b.txt", entries[2].Name)
}

func TestReadDirHidesDotfilesByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".hidden"), "x")
	writeFile(t, filepath.Join(dir, "visible.txt"), "x")

	entries, err := ReadDir(dir, false, 0)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, ".hidden", e.Name)
	}

	entriesShown, err := ReadDir(dir, true, 0)
	require.NoError(t, err)
	var found bool
	for _, e := range entriesShown {
		if e.Name == ".hidden" {
			found = true
		}
	}
	assert.True(t, found)
}
