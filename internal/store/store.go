// Package store persists translation memories, one JSON document per
// language pair, under a single data directory. Reads go through an
// in-memory cache; writes are atomic (temp file + rename) so a failed
// write never clobbers the previous version.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/gamestringer/gamestringer/internal/debug"
	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/types"
)

// memoryFilePattern matches persisted memory files within the data directory
const memoryFilePattern = "tm_*.json"

// Store is the persistence gateway for translation memories
type Store struct {
	dir string

	mu          sync.RWMutex
	cache       map[string]*types.TranslationMemory
	lastWritten map[string]uint64 // filename → xxhash of last self-written content

	loads singleflight.Group
}

// NewStore creates the data directory if needed and returns a gateway over it
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, gserrors.NewStorageIO("init", dir, err)
	}
	return &Store{
		dir:         dir,
		cache:       make(map[string]*types.TranslationMemory),
		lastWritten: make(map[string]uint64),
	}, nil
}

// Dir returns the data directory backing the store
func (s *Store) Dir() string {
	return s.dir
}

// pathFor returns the file path for a language pair
func (s *Store) pathFor(sourceLang, targetLang string) string {
	return filepath.Join(s.dir, types.MemoryFileName(sourceLang, targetLang))
}

// Load returns the memory for a language pair, serving repeated reads from
// cache. Concurrent cold loads of one pair collapse into a single file read.
// The returned value is shared: callers must treat it as read-only and go
// through LoadFresh for read-modify-write cycles.
func (s *Store) Load(sourceLang, targetLang string) (*types.TranslationMemory, error) {
	key := types.PairKey(sourceLang, targetLang)

	s.mu.RLock()
	if m, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return m, nil
	}
	s.mu.RUnlock()

	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		m, err := s.readFile(sourceLang, targetLang)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[key] = m
		s.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.TranslationMemory), nil
}

// LoadFresh reads the memory straight from disk, bypassing the cache.
// Mutation paths use this so a stale cached container can never feed a
// read-modify-write cycle.
func (s *Store) LoadFresh(sourceLang, targetLang string) (*types.TranslationMemory, error) {
	return s.readFile(sourceLang, targetLang)
}

func (s *Store) readFile(sourceLang, targetLang string) (*types.TranslationMemory, error) {
	path := s.pathFor(sourceLang, targetLang)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gserrors.NewNotFound("load", types.PairLabel(sourceLang, targetLang)).WithPath(path)
		}
		return nil, gserrors.NewStorageIO("load", path, err)
	}

	var m types.TranslationMemory
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, gserrors.NewDeserialization("load", path, err).WithPair(types.PairLabel(sourceLang, targetLang))
	}

	debug.LogStore("loaded %s (%d units)\n", filepath.Base(path), len(m.Units))
	return &m, nil
}

// Save persists the whole container atomically and installs it as the
// cached copy for its pair. The caller must not mutate m afterwards.
func (s *Store) Save(m *types.TranslationMemory) error {
	path := s.pathFor(m.SourceLanguage, m.TargetLanguage)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return gserrors.NewStorageIO("save", path, err)
	}

	if err := s.writeAtomic(path, data); err != nil {
		return gserrors.NewStorageIO("save", path, err)
	}

	key := types.PairKey(m.SourceLanguage, m.TargetLanguage)
	s.mu.Lock()
	s.cache[key] = m
	s.lastWritten[filepath.Base(path)] = xxhash.Sum64(data)
	s.mu.Unlock()

	debug.LogStore("saved %s (%d units)\n", filepath.Base(path), len(m.Units))
	return nil
}

// writeAtomic writes data to a temp file in the same directory and renames
// it over the target, so readers never observe a partial document.
func (s *Store) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tm-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Delete removes the persisted memory for a pair. A missing memory is an
// error, unlike search which treats it as an empty result.
func (s *Store) Delete(sourceLang, targetLang string) error {
	path := s.pathFor(sourceLang, targetLang)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return gserrors.NewNotFound("delete", types.PairLabel(sourceLang, targetLang)).WithPath(path)
		}
		return gserrors.NewStorageIO("delete", path, err)
	}
	if err := os.Remove(path); err != nil {
		return gserrors.NewStorageIO("delete", path, err)
	}

	key := types.PairKey(sourceLang, targetLang)
	s.mu.Lock()
	delete(s.cache, key)
	delete(s.lastWritten, filepath.Base(path))
	s.mu.Unlock()

	debug.LogStore("deleted %s\n", filepath.Base(path))
	return nil
}

// Exists reports whether a memory is persisted for the pair
func (s *Store) Exists(sourceLang, targetLang string) (bool, error) {
	_, err := os.Stat(s.pathFor(sourceLang, targetLang))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, gserrors.NewStorageIO("stat", s.pathFor(sourceLang, targetLang), err)
}

// List scans the data directory and returns a projection of every readable
// memory. Unreadable or corrupt files are skipped, not fatal: a listing is
// best-effort by design.
func (s *Store) List() ([]types.TranslationMemoryInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, gserrors.NewStorageIO("list", s.dir, err)
	}

	infos := make([]types.TranslationMemoryInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matched, _ := doublestar.Match(memoryFilePattern, entry.Name())
		if !matched {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			debug.LogStore("list: skipping unreadable %s: %v\n", entry.Name(), err)
			continue
		}
		var m types.TranslationMemory
		if err := json.Unmarshal(data, &m); err != nil {
			debug.LogStore("list: skipping corrupt %s: %v\n", entry.Name(), err)
			continue
		}
		infos = append(infos, m.Info())
	}

	return infos, nil
}

// Invalidate drops the cached copy for a pair. The next Load re-reads disk.
func (s *Store) Invalidate(sourceLang, targetLang string) {
	s.invalidateKey(types.PairKey(sourceLang, targetLang))
}

func (s *Store) invalidateKey(key string) {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()
}

// invalidateFile drops the cache entry backing a data file, by filename
func (s *Store) invalidateFile(name string) {
	key := pairKeyFromFileName(name)
	if key == "" {
		return
	}
	s.invalidateKey(key)
}

// isSelfWrite reports whether the file's current content is exactly what
// this store last wrote, so watcher events for our own saves can be skipped.
func (s *Store) isSelfWrite(path string) bool {
	s.mu.RLock()
	recorded, ok := s.lastWritten[filepath.Base(path)]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return xxhash.Sum64(data) == recorded
}

// cachedKeys returns the pair keys currently cached (test and debug helper)
func (s *Store) cachedKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.cache))
	for k := range s.cache {
		keys = append(keys, k)
	}
	return keys
}

// pairKeyFromFileName recovers the cache key from a tm_<src>_<tgt>.json name
func pairKeyFromFileName(name string) string {
	const prefix, suffix = "tm_", ".json"
	if len(name) <= len(prefix)+len(suffix) {
		return ""
	}
	if name[:len(prefix)] != prefix || name[len(name)-len(suffix):] != suffix {
		return ""
	}
	return name[len(prefix) : len(name)-len(suffix)]
}
