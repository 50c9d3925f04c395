// Package tm implements the translation memory engine: fuzzy similarity
// search over persisted translation units, and the mutation API (upsert,
// batch upsert, TMX import/export) that maintains them. One Engine is
// constructed at the application root and shared by every command surface.
package tm

import (
	"sync"
	"time"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/store"
	"github.com/gamestringer/gamestringer/internal/types"
)

// Engine owns every translation memory operation. It holds no domain state
// of its own; everything lives in the store.
type Engine struct {
	store *store.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates an engine over a persistence gateway
func NewEngine(s *store.Store) *Engine {
	return &Engine{
		store: s,
		locks: make(map[string]*sync.Mutex),
	}
}

// Store exposes the underlying gateway, for wiring the file watcher
func (e *Engine) Store() *store.Store {
	return e.store
}

// pairLock returns the mutex serializing mutations of one language pair.
// A mutation is a load-modify-save cycle; without per-pair exclusion two
// concurrent upserts would race and the second save would silently drop
// the first one's changes.
func (e *Engine) pairLock(sourceLang, targetLang string) *sync.Mutex {
	key := types.PairKey(sourceLang, targetLang)
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	return l
}

// loadOrCreate returns a private copy of the pair's memory for mutation,
// lazily initializing an empty one on first write. Callers must hold the
// pair lock.
func (e *Engine) loadOrCreate(sourceLang, targetLang string, now time.Time) (*types.TranslationMemory, error) {
	m, err := e.store.LoadFresh(sourceLang, targetLang)
	if err == nil {
		return m, nil
	}
	if gserrors.IsNotFound(err) {
		return types.NewTranslationMemory(sourceLang, targetLang, now), nil
	}
	return nil, err
}

// Get returns the full memory for a pair. A missing memory is an error
// here, unlike Search.
func (e *Engine) Get(sourceLang, targetLang string) (*types.TranslationMemory, error) {
	return e.store.Load(sourceLang, targetLang)
}

// List returns a projection of every persisted memory
func (e *Engine) List() ([]types.TranslationMemoryInfo, error) {
	return e.store.List()
}

// Delete removes the whole memory for a pair; a missing memory is an error
func (e *Engine) Delete(sourceLang, targetLang string) error {
	lock := e.pairLock(sourceLang, targetLang)
	lock.Lock()
	defer lock.Unlock()

	return e.store.Delete(sourceLang, targetLang)
}

// Stats returns the aggregate statistics of a pair's memory. They are
// recomputed on every mutation, so the stored values are always current.
func (e *Engine) Stats(sourceLang, targetLang string) (types.TMStats, error) {
	m, err := e.store.Load(sourceLang, targetLang)
	if err != nil {
		return types.TMStats{}, err
	}
	return m.Stats, nil
}
