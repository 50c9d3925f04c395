package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestHandleEventExternalWriteInvalidates(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(newTestMemory("en", "it", [2]string{"Hello", "Ciao"})))
	require.Contains(t, s.cachedKeys(), "en_it")

	w, err := NewWatcher(s)
	require.NoError(t, err)
	defer w.watcher.Close()

	path := filepath.Join(s.Dir(), "tm_en_it.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sourceLanguage":"en","targetLanguage":"it"}`), 0644))

	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})

	assert.NotContains(t, s.cachedKeys(), "en_it")
}

func TestHandleEventSelfWriteKeepsCache(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(newTestMemory("en", "it", [2]string{"Hello", "Ciao"})))

	w, err := NewWatcher(s)
	require.NoError(t, err)
	defer w.watcher.Close()

	// The file on disk is exactly what Save wrote, so the event is ours.
	path := filepath.Join(s.Dir(), "tm_en_it.json")
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Write})

	assert.Contains(t, s.cachedKeys(), "en_it")
}

func TestHandleEventRemoveInvalidates(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(newTestMemory("en", "fr", [2]string{"Hello", "Bonjour"})))

	w, err := NewWatcher(s)
	require.NoError(t, err)
	defer w.watcher.Close()

	path := filepath.Join(s.Dir(), "tm_en_fr.json")
	w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Remove})

	assert.NotContains(t, s.cachedKeys(), "en_fr")
}

func TestHandleEventIgnoresUnrelatedFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(newTestMemory("en", "it", [2]string{"Hello", "Ciao"})))

	w, err := NewWatcher(s)
	require.NoError(t, err)
	defer w.watcher.Close()

	w.handleEvent(fsnotify.Event{Name: filepath.Join(s.Dir(), "notes.txt"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(s.Dir(), "glossary_game.json"), Op: fsnotify.Write})

	assert.Contains(t, s.cachedKeys(), "en_it")
}

func TestWatcherLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestStore(t)
	require.NoError(t, s.Save(newTestMemory("en", "it", [2]string{"Hello", "Ciao"})))

	w, err := NewWatcher(s)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	// Starting twice is a no-op.
	require.NoError(t, w.Start(ctx))

	path := filepath.Join(s.Dir(), "tm_en_it.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sourceLanguage":"en","targetLanguage":"it"}`), 0644))

	require.Eventually(t, func() bool {
		for _, k := range s.cachedKeys() {
			if k == "en_it" {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond, "external write never invalidated the cache")

	w.Stop()
	// Stopping twice is safe.
	w.Stop()
}
