// Package glossary manages per-game terminology databases: fixed term
// translations and do-not-translate lists that translators apply alongside
// the translation memory. One JSON document per game id, stored in a
// glossaries directory.
package glossary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamestringer/gamestringer/internal/debug"
	gserrors "github.com/gamestringer/gamestringer/internal/errors"
)

// exportVersion is the envelope version written by Export
const exportVersion = "1.0"

// GlossaryEntry is one fixed term translation
type GlossaryEntry struct {
	ID            string    `json:"id"`
	Original      string    `json:"original"`
	Translation   string    `json:"translation"`
	CaseSensitive bool      `json:"case_sensitive"`
	Context       string    `json:"context,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GlossaryMetadata describes the game's translation register
type GlossaryMetadata struct {
	Genre          string   `json:"genre,omitempty"`
	Tone           string   `json:"tone,omitempty"`
	Setting        string   `json:"setting,omitempty"`
	DoNotTranslate []string `json:"do_not_translate"`
	Notes          string   `json:"notes,omitempty"`
}

// GameGlossary is the unit of persistence: every entry for one game
type GameGlossary struct {
	ID             string           `json:"id"`
	GameID         string           `json:"game_id"`
	GameName       string           `json:"game_name"`
	SourceLanguage string           `json:"source_language"`
	TargetLanguage string           `json:"target_language"`
	Entries        []GlossaryEntry  `json:"entries"`
	Metadata       GlossaryMetadata `json:"metadata"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Export is the versioned envelope produced by Service.Export
type Export struct {
	Version    string       `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Glossary   GameGlossary `json:"glossary"`
}

// Replacement is one substitution a glossary dictates for a text
type Replacement struct {
	Original    string `json:"original"`
	Translation string `json:"translation"`
}

// NewEntry carries the caller-supplied fields of a new glossary entry
type NewEntry struct {
	Original      string
	Translation   string
	CaseSensitive bool
	Context       string
	Notes         string
}

// EntryPatch updates an entry field-wise; nil fields are left unchanged
type EntryPatch struct {
	Original      *string
	Translation   *string
	CaseSensitive *bool
	Context       *string
	Notes         *string
}

// MetadataPatch updates glossary metadata field-wise; nil fields are left
// unchanged, and a non-nil empty DoNotTranslate clears the list
type MetadataPatch struct {
	Genre          *string
	Tone           *string
	Setting        *string
	DoNotTranslate []string
	Notes          *string
}

// Service persists and queries game glossaries. Glossaries are small
// (dozens of entries) and games are few, so a single mutex serializes all
// mutations instead of per-game locks.
type Service struct {
	dir string
	mu  sync.Mutex
}

// NewService creates the glossaries directory if needed
func NewService(dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, gserrors.NewStorageIO("init", dir, err)
	}
	return &Service{dir: dir}, nil
}

// Dir returns the directory holding glossary files
func (s *Service) Dir() string {
	return s.dir
}

func (s *Service) pathFor(gameID string) string {
	return filepath.Join(s.dir, gameID+".json")
}

// validGameID rejects ids that would escape the glossaries directory
func validGameID(gameID string) error {
	if strings.TrimSpace(gameID) == "" {
		return gserrors.NewValidationError("game_id", "must not be blank")
	}
	if strings.ContainsAny(gameID, `/\`) || gameID == "." || gameID == ".." {
		return gserrors.NewValidationError("game_id", "must not contain path separators")
	}
	return nil
}

// Create initializes an empty glossary for a game and persists it,
// replacing any existing glossary for the same game id.
func (s *Service) Create(gameID, gameName, sourceLang, targetLang string) (*GameGlossary, error) {
	if err := validGameID(gameID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	g := &GameGlossary{
		ID:             uuid.NewString(),
		GameID:         gameID,
		GameName:       gameName,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
		Entries:        []GlossaryEntry{},
		Metadata: GlossaryMetadata{
			DoNotTranslate: []string{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.save(g); err != nil {
		return nil, err
	}

	debug.LogGlossary("created glossary %s for game %s\n", g.ID, gameID)
	return g, nil
}

// Get returns the glossary for a game, or nil (without error) when the
// game has none.
func (s *Service) Get(gameID string) (*GameGlossary, error) {
	if err := validGameID(gameID); err != nil {
		return nil, err
	}
	return s.read(gameID)
}

func (s *Service) read(gameID string) (*GameGlossary, error) {
	path := s.pathFor(gameID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, gserrors.NewStorageIO("load", path, err)
	}

	var g GameGlossary
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, gserrors.NewDeserialization("load", path, err)
	}
	return &g, nil
}

// mustRead is read plus a not-found error for operations that require the
// glossary to exist
func (s *Service) mustRead(op, gameID string) (*GameGlossary, error) {
	g, err := s.read(gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, gserrors.NewResourceNotFound(op, "glossary", gameID)
	}
	return g, nil
}

// List returns every readable glossary. Corrupt or unreadable files are
// skipped; a listing is best-effort.
func (s *Service) List() ([]*GameGlossary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, gserrors.NewStorageIO("list", s.dir, err)
	}

	glossaries := make([]*GameGlossary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			debug.LogGlossary("list: skipping unreadable %s: %v\n", entry.Name(), err)
			continue
		}
		var g GameGlossary
		if err := json.Unmarshal(data, &g); err != nil {
			debug.LogGlossary("list: skipping corrupt %s: %v\n", entry.Name(), err)
			continue
		}
		glossaries = append(glossaries, &g)
	}
	return glossaries, nil
}

// AddEntry appends a new entry to a game's glossary. The glossary must
// already exist; entries are not deduplicated.
func (s *Service) AddEntry(gameID string, e NewEntry) (*GlossaryEntry, error) {
	if strings.TrimSpace(e.Original) == "" {
		return nil, gserrors.NewValidationError("original", "must not be blank")
	}
	if strings.TrimSpace(e.Translation) == "" {
		return nil, gserrors.NewValidationError("translation", "must not be blank")
	}
	if err := validGameID(gameID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.mustRead("add_entry", gameID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := GlossaryEntry{
		ID:            uuid.NewString(),
		Original:      e.Original,
		Translation:   e.Translation,
		CaseSensitive: e.CaseSensitive,
		Context:       e.Context,
		Notes:         e.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	g.Entries = append(g.Entries, entry)
	g.UpdatedAt = now

	if err := s.save(g); err != nil {
		return nil, err
	}

	debug.LogGlossary("added entry %s (%s) to %s\n", entry.ID, e.Original, gameID)
	return &entry, nil
}

// UpdateEntry patches an entry in place; nil patch fields stay unchanged
func (s *Service) UpdateEntry(gameID, entryID string, patch EntryPatch) (*GlossaryEntry, error) {
	if err := validGameID(gameID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.mustRead("update_entry", gameID)
	if err != nil {
		return nil, err
	}

	var entry *GlossaryEntry
	for i := range g.Entries {
		if g.Entries[i].ID == entryID {
			entry = &g.Entries[i]
			break
		}
	}
	if entry == nil {
		return nil, gserrors.NewResourceNotFound("update_entry", "glossary entry", entryID)
	}

	if patch.Original != nil {
		entry.Original = *patch.Original
	}
	if patch.Translation != nil {
		entry.Translation = *patch.Translation
	}
	if patch.CaseSensitive != nil {
		entry.CaseSensitive = *patch.CaseSensitive
	}
	if patch.Context != nil {
		entry.Context = *patch.Context
	}
	if patch.Notes != nil {
		entry.Notes = *patch.Notes
	}

	now := time.Now().UTC()
	entry.UpdatedAt = now
	g.UpdatedAt = now

	if err := s.save(g); err != nil {
		return nil, err
	}

	updated := *entry
	return &updated, nil
}

// DeleteEntry removes an entry by id; a missing entry is an error
func (s *Service) DeleteEntry(gameID, entryID string) error {
	if err := validGameID(gameID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.mustRead("delete_entry", gameID)
	if err != nil {
		return err
	}

	kept := g.Entries[:0]
	for _, e := range g.Entries {
		if e.ID != entryID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(g.Entries) {
		return gserrors.NewResourceNotFound("delete_entry", "glossary entry", entryID)
	}
	g.Entries = kept
	g.UpdatedAt = time.Now().UTC()

	return s.save(g)
}

// UpdateMetadata patches the glossary metadata; nil fields stay unchanged
func (s *Service) UpdateMetadata(gameID string, patch MetadataPatch) (*GameGlossary, error) {
	if err := validGameID(gameID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.mustRead("update_metadata", gameID)
	if err != nil {
		return nil, err
	}

	if patch.Genre != nil {
		g.Metadata.Genre = *patch.Genre
	}
	if patch.Tone != nil {
		g.Metadata.Tone = *patch.Tone
	}
	if patch.Setting != nil {
		g.Metadata.Setting = *patch.Setting
	}
	if patch.DoNotTranslate != nil {
		g.Metadata.DoNotTranslate = patch.DoNotTranslate
	}
	if patch.Notes != nil {
		g.Metadata.Notes = *patch.Notes
	}
	g.UpdatedAt = time.Now().UTC()

	if err := s.save(g); err != nil {
		return nil, err
	}
	return g, nil
}

// ExportJSON serializes a glossary into the versioned interchange envelope
func (s *Service) ExportJSON(gameID string) ([]byte, error) {
	if err := validGameID(gameID); err != nil {
		return nil, err
	}

	g, err := s.mustRead("export", gameID)
	if err != nil {
		return nil, err
	}

	export := Export{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Glossary:   *g,
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, gserrors.NewStorageIO("export", s.pathFor(gameID), err)
	}
	return data, nil
}

// ImportJSON installs a glossary from the interchange envelope, replacing
// any existing glossary for the same game id
func (s *Service) ImportJSON(content []byte) (*GameGlossary, error) {
	var export Export
	if err := json.Unmarshal(content, &export); err != nil {
		return nil, gserrors.NewDeserialization("import", "", err)
	}

	g := export.Glossary
	if err := validGameID(g.GameID); err != nil {
		return nil, err
	}
	g.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(&g); err != nil {
		return nil, err
	}

	debug.LogGlossary("imported glossary for game %s (%d entries)\n", g.GameID, len(g.Entries))
	return &g, nil
}

// Replacements returns the substitutions the glossary dictates for a text:
// every entry whose original occurs in the text (respecting the entry's
// case sensitivity), plus identity replacements for do-not-translate terms
// found in the text. A game without a glossary yields no replacements.
func (s *Service) Replacements(gameID, text string) ([]Replacement, error) {
	if err := validGameID(gameID); err != nil {
		return nil, err
	}

	g, err := s.read(gameID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return []Replacement{}, nil
	}

	textLower := strings.ToLower(text)

	replacements := make([]Replacement, 0)
	for _, e := range g.Entries {
		found := false
		if e.CaseSensitive {
			found = strings.Contains(text, e.Original)
		} else {
			found = strings.Contains(textLower, strings.ToLower(e.Original))
		}
		if found {
			replacements = append(replacements, Replacement{Original: e.Original, Translation: e.Translation})
		}
	}

	for _, term := range g.Metadata.DoNotTranslate {
		if term != "" && strings.Contains(text, term) {
			replacements = append(replacements, Replacement{Original: term, Translation: term})
		}
	}

	return replacements, nil
}

// save writes the glossary atomically, temp file plus rename
func (s *Service) save(g *GameGlossary) error {
	path := s.pathFor(g.GameID)

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return gserrors.NewStorageIO("save", path, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".glossary-*.tmp")
	if err != nil {
		return gserrors.NewStorageIO("save", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return gserrors.NewStorageIO("save", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return gserrors.NewStorageIO("save", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return gserrors.NewStorageIO("save", path, err)
	}
	return nil
}
