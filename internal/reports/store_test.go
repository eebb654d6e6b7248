package reports

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 5, 1, 12, 30, 45, 0, time.UTC)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "reports"))
	s.now = fixedClock
	return s
}

func TestStore_CreateName(t *testing.T) {
	s := newTestStore(t)

	name, err := s.Create("overview", ExtMarkdown, []byte("# hi"))
	require.NoError(t, err)
	assert.Equal(t, "20260501123045_overview.md", name)

	data, err := os.ReadFile(s.Path(name))
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(data))
}

func TestStore_CreateCollision(t *testing.T) {
	s := newTestStore(t)

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		name, err := s.Create("compare", ExtMarkdown, []byte("x"))
		require.NoError(t, err)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
		assert.Regexp(t, regexp.MustCompile(`^20260501123045_compare(_[0-9a-f]{8})?\.md$`), name)
	}

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}

func TestStore_CreateCollisionExhausted(t *testing.T) {
	s := newTestStore(t)
	s.token = func() string { return "deadbeef" }

	_, err := s.Create("overview", ExtMarkdown, []byte("1"))
	require.NoError(t, err)
	_, err = s.Create("overview", ExtMarkdown, []byte("2"))
	require.NoError(t, err)

	_, err = s.Create("overview", ExtMarkdown, []byte("3"))
	var reportErr *Error
	assert.ErrorAs(t, err, &reportErr)
}

func TestStore_CreateRejectsExtension(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create("overview", ".sh", []byte("x"))
	var reportErr *Error
	assert.ErrorAs(t, err, &reportErr)
}

func TestStore_CreateUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	s := NewStore(filepath.Join(file, "reports"))
	_, err := s.Create("overview", ExtMarkdown, []byte("x"))
	var reportErr *Error
	assert.ErrorAs(t, err, &reportErr)
}

func TestStore_WriteCompanion(t *testing.T) {
	s := newTestStore(t)
	name, err := s.Create("overview", ExtMarkdown, []byte("x"))
	require.NoError(t, err)

	pdfName, err := s.WriteCompanion(name, ExtPDF, []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "20260501123045_overview.pdf", pdfName)
}

func TestStore_Open(t *testing.T) {
	s := newTestStore(t)
	name, err := s.Create("overview", ExtMarkdown, []byte("content"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(".hidden.md"), []byte("secret"), 0o644))
	require.NoError(t, os.WriteFile(s.Path("notes.txt"), []byte("txt"), 0o644))

	data, err := s.Open(name)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	for _, bad := range []string{
		"nonexistent.md",
		"../" + name,
		"sub/" + name,
		".hidden.md",
		"notes.txt",
		"",
		"..",
	} {
		t.Run(bad, func(t *testing.T) {
			_, err := s.Open(bad)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = s.Create("overview", ExtMarkdown, []byte("a"))
	require.NoError(t, err)
	s.now = func() time.Time { return fixedClock().Add(time.Hour) }
	newer, err := s.Create("compare", ExtMarkdown, []byte("b"))
	require.NoError(t, err)
	_, err = s.WriteCompanion(newer, ExtPDF, []byte("%PDF"))
	require.NoError(t, err)

	entries, err = s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newer, entries[0].Filename)
	assert.Equal(t, "20260501123045_overview.md", entries[1].Filename)
}

func TestClean(t *testing.T) {
	name, err := Clean("20260501123045_overview.PDF")
	require.NoError(t, err)
	assert.Equal(t, "20260501123045_overview.PDF", name)

	_, err = Clean("/etc/passwd.md")
	assert.ErrorIs(t, err, ErrNotFound)
}
