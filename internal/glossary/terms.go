package glossary

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/gamestringer/gamestringer/internal/debug"
	gserrors "github.com/gamestringer/gamestringer/internal/errors"
)

// termFile is the hand-editable TOML layout translators maintain outside
// the app:
//
//	[[entries]]
//	original = "Mana"
//	translation = "Mana"
//	case_sensitive = true
//	context = "stat name"
type termFile struct {
	Entries []termEntry `toml:"entries"`
}

type termEntry struct {
	Original      string `toml:"original"`
	Translation   string `toml:"translation"`
	CaseSensitive bool   `toml:"case_sensitive"`
	Context       string `toml:"context"`
	Notes         string `toml:"notes"`
}

// ImportTerms merges a TOML term file into a game's glossary. Entries with
// a blank side are skipped, as are originals already present in the
// glossary case-insensitively; within the file the first occurrence wins.
// Returns the number of entries appended.
func (s *Service) ImportTerms(gameID, path string) (int, error) {
	if err := validGameID(gameID); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, gserrors.NewStorageIO("import_terms", path, err)
	}

	var tf termFile
	if err := toml.Unmarshal(data, &tf); err != nil {
		return 0, gserrors.NewDeserialization("import_terms", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.mustRead("import_terms", gameID)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(g.Entries))
	for _, e := range g.Entries {
		seen[strings.ToLower(e.Original)] = true
	}

	now := time.Now().UTC()
	added := 0
	for _, e := range tf.Entries {
		if strings.TrimSpace(e.Original) == "" || strings.TrimSpace(e.Translation) == "" {
			continue
		}
		lower := strings.ToLower(e.Original)
		if seen[lower] {
			continue
		}
		g.Entries = append(g.Entries, GlossaryEntry{
			ID:            uuid.NewString(),
			Original:      e.Original,
			Translation:   e.Translation,
			CaseSensitive: e.CaseSensitive,
			Context:       e.Context,
			Notes:         e.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		seen[lower] = true
		added++
	}

	g.UpdatedAt = now
	if err := s.save(g); err != nil {
		return 0, err
	}

	debug.LogGlossary("imported %d term(s) from %s into %s\n", added, path, gameID)
	return added, nil
}
