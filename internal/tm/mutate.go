package tm

import (
	"os"
	"strings"
	"time"

	"github.com/gamestringer/gamestringer/internal/debug"
	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/tmx"
	"github.com/gamestringer/gamestringer/internal/types"
)

// UpsertRequest carries one source↔target pair into Upsert
type UpsertRequest struct {
	SourceLang string
	TargetLang string
	SourceText string
	TargetText string
	Context    string
	GameID     string
	Provider   string // defaults to "manual"
}

// Pair is one batch entry
type Pair struct {
	Source string
	Target string
}

// BatchOptions carries the attributes stamped on units a batch appends
type BatchOptions struct {
	GameID   string
	Provider string // defaults to "batch"
}

// Upsert adds a translation or refreshes an existing one. Matching is
// case-insensitive on source text: a hit overwrites target_text, bumps
// usage_count, and refreshes updated_at, leaving every other field alone;
// a miss appends a new unverified unit with confidence 1.0 and usage 1.
// Stats are recomputed and the container persisted before returning the
// stored unit.
func (e *Engine) Upsert(req UpsertRequest) (*types.TranslationUnit, error) {
	if strings.TrimSpace(req.SourceText) == "" {
		return nil, gserrors.NewValidationError("source_text", "must not be blank")
	}
	if strings.TrimSpace(req.TargetText) == "" {
		return nil, gserrors.NewValidationError("target_text", "must not be blank")
	}

	lock := e.pairLock(req.SourceLang, req.TargetLang)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	m, err := e.loadOrCreate(req.SourceLang, req.TargetLang, now)
	if err != nil {
		return nil, err
	}

	sourceLower := strings.ToLower(req.SourceText)
	var unit *types.TranslationUnit
	for i := range m.Units {
		if strings.ToLower(m.Units[i].SourceText) == sourceLower {
			unit = &m.Units[i]
			break
		}
	}

	if unit != nil {
		unit.TargetText = req.TargetText
		unit.UsageCount++
		unit.UpdatedAt = now
		debug.LogTM("upsert updated %q in %s\n", req.SourceText, types.PairLabel(req.SourceLang, req.TargetLang))
	} else {
		provider := req.Provider
		if provider == "" {
			provider = types.ProviderManual
		}
		m.Units = append(m.Units, types.TranslationUnit{
			ID:             types.NewUnitID(),
			SourceText:     req.SourceText,
			TargetText:     req.TargetText,
			SourceLanguage: req.SourceLang,
			TargetLanguage: req.TargetLang,
			Context:        req.Context,
			GameID:         req.GameID,
			Provider:       provider,
			Confidence:     1.0,
			Verified:       false,
			UsageCount:     1,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		unit = &m.Units[len(m.Units)-1]
		debug.LogTM("upsert added %q to %s\n", req.SourceText, types.PairLabel(req.SourceLang, req.TargetLang))
	}

	m.UpdatedAt = now
	m.RecomputeStats()
	if err := e.store.Save(m); err != nil {
		return nil, err
	}

	stored := *unit
	return &stored, nil
}

// BatchUpsert appends the pairs that are new to the memory. Blank pairs
// are skipped, and a source already present (case-insensitively) is
// skipped rather than updated. The dedup set grows as the batch appends,
// so the first occurrence of a repeated source wins within one batch.
// Persists once and returns the number of units appended.
func (e *Engine) BatchUpsert(pairs []Pair, sourceLang, targetLang string, opts BatchOptions) (int, error) {
	lock := e.pairLock(sourceLang, targetLang)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	m, err := e.loadOrCreate(sourceLang, targetLang, now)
	if err != nil {
		return 0, err
	}

	provider := opts.Provider
	if provider == "" {
		provider = types.ProviderBatch
	}

	seen := make(map[string]bool, len(m.Units))
	for i := range m.Units {
		seen[strings.ToLower(m.Units[i].SourceText)] = true
	}

	added := 0
	for _, p := range pairs {
		if strings.TrimSpace(p.Source) == "" || strings.TrimSpace(p.Target) == "" {
			continue
		}
		sourceLower := strings.ToLower(p.Source)
		if seen[sourceLower] {
			continue
		}
		m.Units = append(m.Units, types.TranslationUnit{
			ID:             types.NewUnitID(),
			SourceText:     p.Source,
			TargetText:     p.Target,
			SourceLanguage: sourceLang,
			TargetLanguage: targetLang,
			GameID:         opts.GameID,
			Provider:       provider,
			Confidence:     1.0,
			Verified:       false,
			UsageCount:     1,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		seen[sourceLower] = true
		added++
	}

	m.UpdatedAt = now
	m.RecomputeStats()
	if err := e.store.Save(m); err != nil {
		return 0, err
	}

	debug.LogTM("batch upsert added %d of %d pair(s) to %s\n", added, len(pairs), types.PairLabel(sourceLang, targetLang))
	return added, nil
}

// ImportTMX merges the units of a TMX file into the pair's memory. Sources
// already present before the import are skipped; duplicates within the
// file itself are all appended, because the dedup set is the pre-import
// snapshot only. Returns the number of units appended.
func (e *Engine) ImportTMX(tmxPath, sourceLang, targetLang string) (int, error) {
	content, err := os.ReadFile(tmxPath)
	if err != nil {
		return 0, gserrors.NewStorageIO("import_tmx", tmxPath, err)
	}

	lock := e.pairLock(sourceLang, targetLang)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	units, err := tmx.Parse(content, sourceLang, targetLang, now)
	if err != nil {
		return 0, gserrors.NewDeserialization("import_tmx", tmxPath, err).WithPair(types.PairLabel(sourceLang, targetLang))
	}

	m, err := e.loadOrCreate(sourceLang, targetLang, now)
	if err != nil {
		return 0, err
	}

	existing := make(map[string]bool, len(m.Units))
	for i := range m.Units {
		existing[strings.ToLower(m.Units[i].SourceText)] = true
	}

	added := 0
	for _, u := range units {
		if existing[strings.ToLower(u.SourceText)] {
			continue
		}
		m.Units = append(m.Units, u)
		added++
	}

	m.UpdatedAt = now
	m.RecomputeStats()
	if err := e.store.Save(m); err != nil {
		return 0, err
	}

	debug.LogTM("imported %d of %d unit(s) from %s into %s\n", added, len(units), tmxPath, types.PairLabel(sourceLang, targetLang))
	return added, nil
}

// ExportTMX writes the pair's memory as a TMX 1.4 document to outputPath
// and returns the path. A missing memory is an error, unlike search.
func (e *Engine) ExportTMX(sourceLang, targetLang, outputPath string) (string, error) {
	m, err := e.store.Load(sourceLang, targetLang)
	if err != nil {
		return "", err
	}

	data := tmx.Marshal(m, sourceLang, targetLang)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", gserrors.NewStorageIO("export_tmx", outputPath, err)
	}

	debug.LogTM("exported %d unit(s) from %s to %s\n", len(m.Units), types.PairLabel(sourceLang, targetLang), outputPath)
	return outputPath, nil
}
