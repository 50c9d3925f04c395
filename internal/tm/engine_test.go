package tm

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/store"
	"github.com/gamestringer/gamestringer/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	s, err := store.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewEngine(s)
}

func mustUpsert(t *testing.T, e *Engine, sourceLang, targetLang, source, target string) *types.TranslationUnit {
	t.Helper()
	unit, err := e.Upsert(UpsertRequest{
		SourceLang: sourceLang,
		TargetLang: targetLang,
		SourceText: source,
		TargetText: target,
	})
	require.NoError(t, err)
	return unit
}

// assertStatsConsistent checks the invariant that holds after every
// successful mutation: stats always describe the unit list exactly.
func assertStatsConsistent(t *testing.T, m *types.TranslationMemory) {
	t.Helper()
	assert.Equal(t, len(m.Units), m.Stats.TotalUnits)

	verified := 0
	usage := 0
	for _, u := range m.Units {
		if u.Verified {
			verified++
		}
		usage += u.UsageCount
	}
	assert.Equal(t, verified, m.Stats.VerifiedUnits)
	assert.Equal(t, usage, m.Stats.TotalUsageCount)
}

func TestGetMissingMemory(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Get("en", "it")
	require.Error(t, err)
	assert.True(t, gserrors.IsNotFound(err))
}

func TestGetReturnsWholeMemory(t *testing.T) {
	e := newTestEngine(t)
	mustUpsert(t, e, "en", "it", "Hello", "Ciao")
	mustUpsert(t, e, "en", "it", "Bye", "Addio")

	m, err := e.Get("en", "it")
	require.NoError(t, err)
	assert.Equal(t, "tm_en_it", m.ID)
	assert.Equal(t, "EN → IT", m.Name)
	assert.Len(t, m.Units, 2)
	assertStatsConsistent(t, m)
}

func TestListMemories(t *testing.T) {
	e := newTestEngine(t)
	mustUpsert(t, e, "en", "it", "Hello", "Ciao")
	mustUpsert(t, e, "en", "fr", "Hello", "Bonjour")

	infos, err := e.List()
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestDeleteMemory(t *testing.T) {
	e := newTestEngine(t)
	mustUpsert(t, e, "en", "it", "Hello", "Ciao")

	require.NoError(t, e.Delete("en", "it"))

	_, err := e.Get("en", "it")
	assert.True(t, gserrors.IsNotFound(err))

	// Deleted is searchable again as empty, not an error.
	matches, err := e.Search("Hello", "en", "it", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestDeleteMissingMemoryIsError(t *testing.T) {
	e := newTestEngine(t)

	err := e.Delete("en", "it")
	require.Error(t, err)
	assert.True(t, gserrors.IsNotFound(err))
}

func TestStats(t *testing.T) {
	e := newTestEngine(t)
	mustUpsert(t, e, "en", "it", "Hello", "Ciao")
	mustUpsert(t, e, "en", "it", "Bye", "Addio")
	mustUpsert(t, e, "en", "it", "hello", "Ciao!") // update, not insert

	stats, err := e.Stats("en", "it")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUnits)
	assert.Equal(t, 0, stats.VerifiedUnits)
	assert.Equal(t, 3, stats.TotalUsageCount)
	assert.InDelta(t, 1.0, stats.AverageConfidence, 1e-9)
	assert.Equal(t, map[string]int{types.ProviderManual: 2}, stats.ByProvider)
}

func TestStatsMissingMemory(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Stats("en", "it")
	assert.True(t, gserrors.IsNotFound(err))
}

// Concurrent upserts against one pair must not lose updates: the original
// implementation raced here and the second writer silently dropped the
// first writer's changes.
func TestConcurrentUpsertsDistinctSources(t *testing.T) {
	e := newTestEngine(t)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			_, err := e.Upsert(UpsertRequest{
				SourceLang: "en",
				TargetLang: "it",
				SourceText: fmt.Sprintf("source %d", n),
				TargetText: fmt.Sprintf("target %d", n),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	m, err := e.Get("en", "it")
	require.NoError(t, err)
	assert.Len(t, m.Units, workers)
	assertStatsConsistent(t, m)
}

func TestConcurrentUpsertsSameSource(t *testing.T) {
	e := newTestEngine(t)

	const workers = 10
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			_, err := e.Upsert(UpsertRequest{
				SourceLang: "en",
				TargetLang: "it",
				SourceText: "Hello",
				TargetText: fmt.Sprintf("Ciao %d", n),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	m, err := e.Get("en", "it")
	require.NoError(t, err)
	require.Len(t, m.Units, 1)
	assert.Equal(t, workers, m.Units[0].UsageCount)
	assertStatsConsistent(t, m)
}
