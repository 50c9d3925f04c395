package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known provider labels recorded on translation units
const (
	ProviderManual    = "manual"
	ProviderBatch     = "batch"
	ProviderTMXImport = "tmx_import"
)

// MatchType classifies how a stored unit matched a search query
type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchContains MatchType = "contains"
	MatchFuzzy    MatchType = "fuzzy"
)

// UnitMetadata is an optional structured extension on a translation unit.
// Opaque to the matching engine.
type UnitMetadata struct {
	CharacterLimit int      `json:"characterLimit,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Notes          string   `json:"notes,omitempty"`
}

// TranslationUnit is one source↔target string pair with provenance metadata
type TranslationUnit struct {
	ID             string        `json:"id"`
	SourceText     string        `json:"sourceText"`
	TargetText     string        `json:"targetText"`
	SourceLanguage string        `json:"sourceLanguage"`
	TargetLanguage string        `json:"targetLanguage"`
	Context        string        `json:"context,omitempty"`
	GameID         string        `json:"gameId,omitempty"`
	Provider       string        `json:"provider"`
	Confidence     float64       `json:"confidence"`
	Verified       bool          `json:"verified"`
	UsageCount     int           `json:"usageCount"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	Metadata       *UnitMetadata `json:"metadata,omitempty"`
}

// TMStats aggregates a memory's units. Recomputed from the unit list on
// every mutation, never maintained incrementally.
type TMStats struct {
	TotalUnits        int            `json:"totalUnits"`
	VerifiedUnits     int            `json:"verifiedUnits"`
	TotalUsageCount   int            `json:"totalUsageCount"`
	AverageConfidence float64        `json:"averageConfidence"`
	ByProvider        map[string]int `json:"byProvider"`
	ByContext         map[string]int `json:"byContext"`
}

// TranslationMemory is the unit of persistence: every unit for one
// source→target language pair, plus aggregate statistics.
type TranslationMemory struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	SourceLanguage string            `json:"sourceLanguage"`
	TargetLanguage string            `json:"targetLanguage"`
	Units          []TranslationUnit `json:"units"`
	Stats          TMStats           `json:"stats"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// TranslationMemoryInfo is the listing projection of a memory
type TranslationMemoryInfo struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	SourceLanguage string    `json:"sourceLanguage"`
	TargetLanguage string    `json:"targetLanguage"`
	UnitCount      int       `json:"unitCount"`
	VerifiedCount  int       `json:"verifiedCount"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TMMatch wraps a unit returned from search. Ephemeral, never persisted.
type TMMatch struct {
	Unit       TranslationUnit `json:"unit"`
	Similarity float64         `json:"similarity"`
	MatchType  MatchType       `json:"matchType"`
}

// InstalledGame is the record per-store scanners emit. The engine only
// ever references games by id (TranslationUnit.GameID); no referential
// integrity is enforced.
type InstalledGame struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Executable  string    `json:"executable,omitempty"`
	SizeBytes   int64     `json:"sizeBytes"`
	InstalledAt time.Time `json:"installedAt"`
	LastPlayed  time.Time `json:"lastPlayed"`
	Platform    string    `json:"platform"`
}

// NewUnitID returns an opaque unique identifier for a new translation unit
func NewUnitID() string {
	return uuid.NewString()
}

// PairKey returns the canonical lowercased key for a language pair,
// used for file naming and per-pair locking.
func PairKey(sourceLang, targetLang string) string {
	return fmt.Sprintf("%s_%s", strings.ToLower(sourceLang), strings.ToLower(targetLang))
}

// MemoryFileName returns the persisted filename for a language pair
func MemoryFileName(sourceLang, targetLang string) string {
	return fmt.Sprintf("tm_%s.json", PairKey(sourceLang, targetLang))
}

// PairLabel formats a language pair for error messages and logs
func PairLabel(sourceLang, targetLang string) string {
	return fmt.Sprintf("%s→%s", sourceLang, targetLang)
}

// MemoryID derives the identifier of a memory from its language codes as given
func MemoryID(sourceLang, targetLang string) string {
	return fmt.Sprintf("tm_%s_%s", sourceLang, targetLang)
}

// MemoryName derives the display name of a memory
func MemoryName(sourceLang, targetLang string) string {
	return fmt.Sprintf("%s → %s", strings.ToUpper(sourceLang), strings.ToUpper(targetLang))
}

// NewTranslationMemory lazily initializes an empty memory for a language pair
func NewTranslationMemory(sourceLang, targetLang string, now time.Time) *TranslationMemory {
	return &TranslationMemory{
		ID:             MemoryID(sourceLang, targetLang),
		Name:           MemoryName(sourceLang, targetLang),
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
		Units:          []TranslationUnit{},
		Stats:          TMStats{ByProvider: map[string]int{}, ByContext: map[string]int{}},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// RecomputeStats rebuilds every aggregate field from the unit list.
// Invariant after every successful mutation: TotalUnits == len(Units)
// and VerifiedUnits == count(Verified).
func (m *TranslationMemory) RecomputeStats() {
	stats := TMStats{
		ByProvider: make(map[string]int),
		ByContext:  make(map[string]int),
	}
	confidenceSum := 0.0
	for i := range m.Units {
		u := &m.Units[i]
		stats.TotalUnits++
		if u.Verified {
			stats.VerifiedUnits++
		}
		stats.TotalUsageCount += u.UsageCount
		confidenceSum += u.Confidence
		stats.ByProvider[u.Provider]++
		if u.Context != "" {
			stats.ByContext[u.Context]++
		}
	}
	if stats.TotalUnits > 0 {
		stats.AverageConfidence = confidenceSum / float64(stats.TotalUnits)
	}
	m.Stats = stats
}

// Info returns the listing projection of the memory
func (m *TranslationMemory) Info() TranslationMemoryInfo {
	verified := 0
	for i := range m.Units {
		if m.Units[i].Verified {
			verified++
		}
	}
	return TranslationMemoryInfo{
		ID:             m.ID,
		Name:           m.Name,
		SourceLanguage: m.SourceLanguage,
		TargetLanguage: m.TargetLanguage,
		UnitCount:      len(m.Units),
		VerifiedCount:  verified,
		UpdatedAt:      m.UpdatedAt,
	}
}
