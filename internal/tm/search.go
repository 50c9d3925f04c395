package tm

import (
	"sort"
	"strings"

	"github.com/gamestringer/gamestringer/internal/debug"
	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/similarity"
	"github.com/gamestringer/gamestringer/internal/types"
)

// Search defaults, applied when SearchOptions carries zero values
const (
	DefaultMinSimilarity = 0.6
	DefaultMaxResults    = 10
)

// SearchOptions tunes a search. The zero value means defaults: zero
// MinSimilarity resolves to 0.6, zero or negative MaxResults to 10.
// A negative MinSimilarity disables the floor entirely.
type SearchOptions struct {
	MinSimilarity float64
	MaxResults    int
}

// DefaultSearchOptions returns the resolved default options
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		MinSimilarity: DefaultMinSimilarity,
		MaxResults:    DefaultMaxResults,
	}
}

func (o SearchOptions) resolve() (minSimilarity float64, maxResults int) {
	minSimilarity = o.MinSimilarity
	switch {
	case minSimilarity == 0:
		minSimilarity = DefaultMinSimilarity
	case minSimilarity < 0:
		minSimilarity = 0
	}

	maxResults = o.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return minSimilarity, maxResults
}

// Search returns ranked matches for query against the pair's stored units.
// Each unit is classified once, first match wins: exact (lowercased
// equality, similarity forced to 1.0), then contains (substring in either
// direction), then fuzzy. Contains and fuzzy matches are kept only when
// their similarity clears the floor. Results are sorted descending by
// similarity, ties in stored order, and truncated to MaxResults.
//
// A language pair with no persisted memory yields an empty result, not an
// error; only genuine load failures propagate.
func (e *Engine) Search(query, sourceLang, targetLang string, opts SearchOptions) ([]types.TMMatch, error) {
	minSimilarity, maxResults := opts.resolve()

	m, err := e.store.Load(sourceLang, targetLang)
	if err != nil {
		if gserrors.IsNotFound(err) {
			return []types.TMMatch{}, nil
		}
		return nil, err
	}

	queryLower := strings.ToLower(query)

	matches := make([]types.TMMatch, 0, maxResults)
	for i := range m.Units {
		unit := m.Units[i]
		sourceLower := strings.ToLower(unit.SourceText)

		switch {
		case sourceLower == queryLower:
			matches = append(matches, types.TMMatch{
				Unit:       unit,
				Similarity: 1.0,
				MatchType:  types.MatchExact,
			})
		case strings.Contains(sourceLower, queryLower) || strings.Contains(queryLower, sourceLower):
			if score := similarity.Score(queryLower, sourceLower); score >= minSimilarity {
				matches = append(matches, types.TMMatch{
					Unit:       unit,
					Similarity: score,
					MatchType:  types.MatchContains,
				})
			}
		default:
			if score := similarity.Score(queryLower, sourceLower); score >= minSimilarity {
				matches = append(matches, types.TMMatch{
					Unit:       unit,
					Similarity: score,
					MatchType:  types.MatchFuzzy,
				})
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	debug.LogTM("search %q in %s: %d match(es)\n", query, types.PairLabel(sourceLang, targetLang), len(matches))
	return matches, nil
}
