package filestorage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/apperrors"
)

func setupStorage(t *testing.T) *LocalStorage {
	t.Helper()
	ls, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return ls
}

func writeStoredFile(t *testing.T, ls *LocalStorage, username, name, content string) string {
	t.Helper()
	dir := filepath.Join(ls.basePath, username)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	return filepath.Join(username, name)
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "report.pdf", SanitizeFilename("report.pdf"))
	require.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	require.Equal(t, "a_b.txt", SanitizeFilename("a|b.txt"))
	require.Equal(t, "unnamed", SanitizeFilename(""))
	require.Equal(t, "unnamed", SanitizeFilename("."))
}

func TestExists(t *testing.T) {
	ls := setupStorage(t)

	require.False(t, ls.Exists("jdoe", "report.pdf"))
	writeStoredFile(t, ls, "jdoe", "report.pdf", "content")
	require.True(t, ls.Exists("jdoe", "report.pdf"))
	require.False(t, ls.Exists("other", "report.pdf"))
}

func TestDeleteFileIdempotent(t *testing.T) {
	ls := setupStorage(t)

	rel := writeStoredFile(t, ls, "jdoe", "report.pdf", "content")
	require.NoError(t, ls.DeleteFile(rel))
	require.False(t, ls.Exists("jdoe", "report.pdf"))

	// deleting again is not an error
	require.NoError(t, ls.DeleteFile(rel))
}

func TestFullPathRejectsEscapes(t *testing.T) {
	ls := setupStorage(t)

	require.Equal(t, "", ls.FullPath("../outside"))
	require.Equal(t, "", ls.FullPath("/etc/passwd"))
	require.NotEqual(t, "", ls.FullPath("jdoe/report.pdf"))
}

func TestCopyToProjects(t *testing.T) {
	ls := setupStorage(t)
	rel := writeStoredFile(t, ls, "jdoe", "stored.pdf", "payload")

	destDir := t.TempDir()
	dst, err := ls.CopyToProjects(rel, destDir, "report.pdf")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(destDir, "report.pdf"), dst)

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "payload", string(content))

	// the source must still exist: it is a copy, not a move
	require.True(t, ls.Exists("jdoe", "stored.pdf"))
}

func TestCopyToProjectsRefusesOverwrite(t *testing.T) {
	ls := setupStorage(t)
	rel := writeStoredFile(t, ls, "jdoe", "stored.pdf", "payload")

	destDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(destDir, "report.pdf"), []byte("existing"), 0o644))

	_, err := ls.CopyToProjects(rel, destDir, "report.pdf")
	require.ErrorIs(t, err, apperrors.ErrDestinationExists)

	// the existing destination file is untouched
	content, err := os.ReadFile(filepath.Join(destDir, "report.pdf"))
	require.NoError(t, err)
	require.Equal(t, "existing", string(content))
}

func TestCopyToProjectsMissingSource(t *testing.T) {
	ls := setupStorage(t)

	_, err := ls.CopyToProjects("jdoe/missing.pdf", t.TempDir(), "missing.pdf")
	require.ErrorIs(t, err, apperrors.ErrFileNotFound)
}
