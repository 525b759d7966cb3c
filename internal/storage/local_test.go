package storage

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_UploadAndList(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) }

	first, err := s.UploadFromBytes([]byte("one"), "audit_archive.xlsx", "archives")
	require.NoError(t, err)
	second, err := s.UploadFromBytes([]byte("two"), "audit_archive.xlsx", "archives")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, filepath.Join("archives", "2026", "03", "audit_archive_")))
	assert.Equal(t, ".xlsx", filepath.Ext(first))
	assert.True(t, s.Exists(first))

	paths, err := s.List("archives")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first, second}, paths)

	f, err := s.Download(second)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestLocalStorage_ListMissingDir(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	paths, err := s.List("archives")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLocalStorage_RejectsEscapingPaths(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Download("../etc/passwd")
	assert.Error(t, err)
	assert.False(t, s.Exists("../../secret"))
}
