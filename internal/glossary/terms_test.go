package glossary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
)

func writeTermFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terms.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestImportTermsMergesFile(t *testing.T) {
	s := newTestService(t)
	mustCreate(t, s, "game-1")
	_, err := s.AddEntry("game-1", NewEntry{Original: "Mana", Translation: "Mana"})
	require.NoError(t, err)

	path := writeTermFile(t, `
[[entries]]
original = "mana"
translation = "MP"

[[entries]]
original = "Guild"
translation = "Gilda"
case_sensitive = true
context = "faction"

[[entries]]
original = "guild"
translation = "Corporazione"

[[entries]]
original = "   "
translation = "blank"
`)

	added, err := s.ImportTerms("game-1", path)
	require.NoError(t, err)
	assert.Equal(t, 1, added, "existing Mana and repeated guild skipped, blank skipped")

	g, err := s.Get("game-1")
	require.NoError(t, err)
	require.Len(t, g.Entries, 2)
	assert.Equal(t, "Guild", g.Entries[1].Original)
	assert.Equal(t, "Gilda", g.Entries[1].Translation)
	assert.True(t, g.Entries[1].CaseSensitive)
	assert.Equal(t, "faction", g.Entries[1].Context)
}

func TestImportTermsRequiresGlossary(t *testing.T) {
	s := newTestService(t)
	path := writeTermFile(t, `[[entries]]
original = "a"
translation = "b"
`)

	_, err := s.ImportTerms("missing", path)
	require.Error(t, err)
	assert.True(t, gserrors.IsNotFound(err))
}

func TestImportTermsMissingFile(t *testing.T) {
	s := newTestService(t)
	mustCreate(t, s, "game-1")

	_, err := s.ImportTerms("game-1", filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, gserrors.IsStorageIO(err))
}

func TestImportTermsMalformedTOML(t *testing.T) {
	s := newTestService(t)
	mustCreate(t, s, "game-1")

	path := writeTermFile(t, "[[entries]\noriginal = ")

	_, err := s.ImportTerms("game-1", path)
	require.Error(t, err)
	assert.True(t, gserrors.IsDeserialization(err))
}

func TestImportTermsEmptyFile(t *testing.T) {
	s := newTestService(t)
	mustCreate(t, s, "game-1")

	added, err := s.ImportTerms("game-1", writeTermFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 0, added)
}
