// Package tmx reads and writes TMX 1.4 (Translation Memory eXchange)
// documents, the interchange format third-party CAT tools consume.
// The export layout is fixed byte-for-byte; do not reformat it.
package tmx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/gamestringer/gamestringer/internal/types"
)

const documentHeader = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE tmx SYSTEM "tmx14.dtd">
<tmx version="1.4">
  <header
    creationtool="GameStringer"
    creationtoolversion="1.0"
    datatype="plaintext"
    segtype="sentence"
    adminlang="en"
    srclang="%s"
    o-tmf="GameStringer TM">
  </header>
  <body>
`

const unitTemplate = `    <tu tuid="%s">
      <tuv xml:lang="%s">
        <seg>%s</seg>
      </tuv>
      <tuv xml:lang="%s">
        <seg>%s</seg>
      </tuv>
    </tu>
`

const documentFooter = "  </body>\n</tmx>"

// Marshal renders a memory as a TMX 1.4 document. The language codes are
// the caller's, as given, matching the header srclang and each tuv.
func Marshal(m *types.TranslationMemory, sourceLang, targetLang string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, documentHeader, sourceLang)
	for i := range m.Units {
		u := &m.Units[i]
		fmt.Fprintf(&b, unitTemplate,
			u.ID,
			sourceLang,
			EscapeText(u.SourceText),
			targetLang,
			EscapeText(u.TargetText),
		)
	}
	b.WriteString(documentFooter)
	return []byte(b.String())
}

// EscapeText escapes the five XML special characters, ampersand first
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

type tmxDocument struct {
	Units []tmxUnit `xml:"body>tu"`
}

type tmxUnit struct {
	TUID     string       `xml:"tuid,attr"`
	Variants []tmxVariant `xml:"tuv"`
}

type tmxVariant struct {
	Lang string `xml:"lang,attr"`
	Seg  string `xml:"seg"`
}

// Parse extracts translation units from a TMX document. Each <tu>
// contributes its tuid and its first two <tuv> elements; the source side is
// the variant whose xml:lang equals sourceLang case-insensitively, otherwise
// the sides swap. Elements without two variants are skipped. A well-formed
// document with nothing usable parses to zero units; a malformed document is
// an error. Units come back with import provenance (provider "tmx_import",
// confidence 0.9, verified) and are not yet deduplicated.
func Parse(content []byte, sourceLang, targetLang string, now time.Time) ([]types.TranslationUnit, error) {
	var doc tmxDocument
	if err := xml.NewDecoder(bytes.NewReader(content)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding tmx: %w", err)
	}

	units := make([]types.TranslationUnit, 0, len(doc.Units))
	for _, tu := range doc.Units {
		if len(tu.Variants) < 2 {
			continue
		}

		first, second := tu.Variants[0], tu.Variants[1]
		sourceText, targetText := first.Seg, second.Seg
		if !strings.EqualFold(first.Lang, sourceLang) {
			sourceText, targetText = second.Seg, first.Seg
		}

		id := tu.TUID
		if id == "" {
			id = fmt.Sprintf("imported_%d", len(units))
		}

		units = append(units, types.TranslationUnit{
			ID:             id,
			SourceText:     sourceText,
			TargetText:     targetText,
			SourceLanguage: sourceLang,
			TargetLanguage: targetLang,
			Provider:       types.ProviderTMXImport,
			Confidence:     0.9,
			Verified:       true,
			UsageCount:     0,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	return units, nil
}
