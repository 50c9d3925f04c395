// Package games aggregates installed-game discovery across store
// launchers and keeps store credentials sealed at rest. Concrete
// scanners and ciphers live with the host application; this package
// defines the contracts and fans registered scanners out.
package games

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gamestringer/gamestringer/internal/debug"
	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/types"
)

// Scanner discovers games installed through a single store launcher.
type Scanner interface {
	// Store names the launcher the scanner covers, e.g. "steam".
	Store() string
	// Scan returns every game the launcher has installed locally.
	Scan(ctx context.Context) ([]types.InstalledGame, error)
}

// Registry fans registered scanners out and merges what they find.
// A failing scanner never hides the results of the others.
type Registry struct {
	mu       sync.RWMutex
	scanners []Scanner
}

// NewRegistry returns an empty registry. Hosts register a scanner per
// store launcher they know how to read.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a scanner. A scanner registered twice runs twice.
func (r *Registry) Register(s Scanner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scanners = append(r.scanners, s)
}

// Stores returns the store names of the registered scanners in
// registration order.
func (r *Registry) Stores() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stores := make([]string, len(r.scanners))
	for i, s := range r.scanners {
		stores[i] = s.Store()
	}
	return stores
}

// ScanAll runs every registered scanner concurrently and merges the
// results sorted by game name. Scanner failures are skipped and
// aggregated; partial results are returned alongside the error.
func (r *Registry) ScanAll(ctx context.Context) ([]types.InstalledGame, error) {
	r.mu.RLock()
	scanners := make([]Scanner, len(r.scanners))
	copy(scanners, r.scanners)
	r.mu.RUnlock()

	results := make([][]types.InstalledGame, len(scanners))
	failures := make([]error, len(scanners))

	var wg sync.WaitGroup
	for i, s := range scanners {
		wg.Add(1)
		go func(i int, s Scanner) {
			defer wg.Done()
			results[i], failures[i] = s.Scan(ctx)
		}(i, s)
	}
	wg.Wait()

	games := make([]types.InstalledGame, 0)
	var errs []error
	for i, s := range scanners {
		if failures[i] != nil {
			debug.LogGames("%s scan failed: %v\n", s.Store(), failures[i])
			errs = append(errs, fmt.Errorf("%s: %w", s.Store(), failures[i]))
			continue
		}
		games = append(games, results[i]...)
	}

	sort.SliceStable(games, func(i, j int) bool { return games[i].Name < games[j].Name })

	return games, gserrors.NewMultiError(errs).ErrOrNil()
}
