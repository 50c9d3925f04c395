package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/router"
	"github.com/gamestringer/gamestringer/internal/tm"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL(DefaultFileName, "")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, float64(tm.DefaultMinSimilarity), cfg.Search.MinSimilarity)
	assert.Equal(t, tm.DefaultMaxResults, cfg.Search.MaxResults)
	assert.True(t, cfg.Data.Watch)
	assert.Empty(t, cfg.Data.Dir)
	assert.Len(t, cfg.Backends.Backends, 4)
}

func TestParseKDL_DataSection(t *testing.T) {
	kdlContent := `
data {
    dir "/srv/gamestringer/tm"
    watch false
}
`
	cfg, err := parseKDL(DefaultFileName, kdlContent)
	require.NoError(t, err)

	assert.Equal(t, "/srv/gamestringer/tm", cfg.Data.Dir)
	assert.False(t, cfg.Data.Watch)
}

func TestParseKDL_SearchSection(t *testing.T) {
	kdlContent := `
search {
    min_similarity 0.75
    max_results 25
}
`
	cfg, err := parseKDL(DefaultFileName, kdlContent)
	require.NoError(t, err)

	assert.Equal(t, 0.75, cfg.Search.MinSimilarity)
	assert.Equal(t, 25, cfg.Search.MaxResults)
}

func TestParseKDL_PartialSearch(t *testing.T) {
	kdlContent := `
search {
    max_results 50
}
`
	cfg, err := parseKDL(DefaultFileName, kdlContent)
	require.NoError(t, err)

	// Only max_results changed, min_similarity keeps its default.
	assert.Equal(t, float64(tm.DefaultMinSimilarity), cfg.Search.MinSimilarity)
	assert.Equal(t, 50, cfg.Search.MaxResults)
}

func TestParseKDL_BackendOverrides(t *testing.T) {
	kdlContent := `
backends {
    deepl {
        enabled false
        api_key "secret"
        rate_limit 100
        priority 3
        cost_per_char 0.00005
    }
}
`
	cfg, err := parseKDL(DefaultFileName, kdlContent)
	require.NoError(t, err)

	deepl := cfg.Backends.Backends[router.BackendDeepL]
	assert.False(t, deepl.Enabled)
	assert.Equal(t, "secret", deepl.APIKey)
	assert.Equal(t, 100, deepl.RateLimitPerMinute)
	assert.Equal(t, 3, deepl.Priority)
	assert.InEpsilon(t, 0.00005, deepl.CostPerChar, 1e-12)

	// Untouched backends keep their defaults.
	google := cfg.Backends.Backends[router.BackendGoogle]
	assert.True(t, google.Enabled)
	assert.Equal(t, 4, google.Priority)
}

func TestParseKDL_UnknownBackend(t *testing.T) {
	kdlContent := `
backends {
    bing {
        enabled true
    }
}
`
	_, err := parseKDL(DefaultFileName, kdlContent)
	require.Error(t, err)

	var ce *gserrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "backends", ce.Field)
	assert.Equal(t, "bing", ce.Value)
}

func TestParseKDL_Malformed(t *testing.T) {
	_, err := parseKDL(DefaultFileName, "data {\n    dir \"unterminated\n")
	require.Error(t, err)

	var ce *gserrors.ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("GAMESTRINGER_DATA", dataDir)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.kdl"))
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.Data.Dir)
	assert.Equal(t, float64(tm.DefaultMinSimilarity), cfg.Search.MinSimilarity)
	assert.Len(t, cfg.Backends.Backends, 4)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	kdlContent := `
data {
    dir "/srv/tm"
}
search {
    max_results 5
}
`
	require.NoError(t, os.WriteFile(path, []byte(kdlContent), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/tm", cfg.Data.Dir)
	assert.Equal(t, 5, cfg.Search.MaxResults)
}

func TestLoad_RejectsBadSimilarity(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("search {\n    min_similarity 1.5\n}\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)

	var ce *gserrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "search.min_similarity", ce.Field)
}

func TestValidate_BackendRanges(t *testing.T) {
	cfg := defaultConfig()
	bc := cfg.Backends.Backends[router.BackendDeepL]
	bc.Priority = 0
	cfg.Backends.Backends[router.BackendDeepL] = bc

	err := cfg.Validate()
	require.Error(t, err)

	var ce *gserrors.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "backends.deepl.priority", ce.Field)
}

func TestDefaultDataDir_EnvOverride(t *testing.T) {
	t.Setenv("GAMESTRINGER_DATA", "/custom/data")

	dir, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, "/custom/data", dir)
}

func TestDefaultDataDir_PlatformFallback(t *testing.T) {
	t.Setenv("GAMESTRINGER_DATA", "")
	t.Setenv("LOCALAPPDATA", "")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	dir, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg/data", "GameStringer", "translation_memory"), dir)
}
