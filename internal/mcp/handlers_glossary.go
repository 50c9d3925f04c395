package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gamestringer/gamestringer/internal/glossary"
)

// GlossaryCreateParams are the arguments of the glossary_create tool
type GlossaryCreateParams struct {
	GameID     string `json:"game_id"`
	GameName   string `json:"game_name"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

func (s *Server) handleGlossaryCreate(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p GlossaryCreateParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("glossary_create", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank(
		[2]string{"game_id", p.GameID},
		[2]string{"game_name", p.GameName},
		[2]string{"source_lang", p.SourceLang},
		[2]string{"target_lang", p.TargetLang},
	); err != nil {
		return createErrorResponse("glossary_create", err)
	}

	g, err := s.glossaries.Create(p.GameID, p.GameName, p.SourceLang, p.TargetLang)
	if err != nil {
		s.diagnosticLogger.Errorf("glossary_create failed for %s: %v", p.GameID, err)
		return createErrorResponse("glossary_create", err)
	}

	s.diagnosticLogger.Printf("created glossary for game %s", p.GameID)
	return createJSONResponse(map[string]interface{}{
		"success":  true,
		"glossary": g,
	})
}

// GlossaryGetParams are the arguments of the glossary_get tool
type GlossaryGetParams struct {
	GameID string `json:"game_id"`
}

func (s *Server) handleGlossaryGet(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p GlossaryGetParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("glossary_get", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank([2]string{"game_id", p.GameID}); err != nil {
		return createErrorResponse("glossary_get", err)
	}

	g, err := s.glossaries.Get(p.GameID)
	if err != nil {
		s.diagnosticLogger.Errorf("glossary_get failed for %s: %v", p.GameID, err)
		return createErrorResponse("glossary_get", err)
	}

	// A game without a glossary is an answer, not an error.
	return createJSONResponse(map[string]interface{}{
		"success":  true,
		"found":    g != nil,
		"glossary": g,
	})
}

func (s *Server) handleGlossaryList(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	glossaries, err := s.glossaries.List()
	if err != nil {
		s.diagnosticLogger.Errorf("glossary_list failed: %v", err)
		return createErrorResponse("glossary_list", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success":    true,
		"glossaries": glossaries,
		"count":      len(glossaries),
	})
}

// GlossaryAddEntryParams are the arguments of the glossary_add_entry tool
type GlossaryAddEntryParams struct {
	GameID        string `json:"game_id"`
	Original      string `json:"original"`
	Translation   string `json:"translation"`
	CaseSensitive bool   `json:"case_sensitive,omitempty"`
	Context       string `json:"context,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

func (s *Server) handleGlossaryAddEntry(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p GlossaryAddEntryParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("glossary_add_entry", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank([2]string{"game_id", p.GameID}); err != nil {
		return createErrorResponse("glossary_add_entry", err)
	}

	entry, err := s.glossaries.AddEntry(p.GameID, glossary.NewEntry{
		Original:      p.Original,
		Translation:   p.Translation,
		CaseSensitive: p.CaseSensitive,
		Context:       p.Context,
		Notes:         p.Notes,
	})
	if err != nil {
		s.diagnosticLogger.Errorf("glossary_add_entry failed for %s: %v", p.GameID, err)
		return createErrorResponse("glossary_add_entry", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"entry":   entry,
	})
}

// GlossaryReplacementsParams are the arguments of the glossary_replacements tool
type GlossaryReplacementsParams struct {
	GameID string `json:"game_id"`
	Text   string `json:"text"`
}

func (s *Server) handleGlossaryReplacements(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p GlossaryReplacementsParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("glossary_replacements", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank(
		[2]string{"game_id", p.GameID},
		[2]string{"text", p.Text},
	); err != nil {
		return createErrorResponse("glossary_replacements", err)
	}

	replacements, err := s.glossaries.Replacements(p.GameID, p.Text)
	if err != nil {
		s.diagnosticLogger.Errorf("glossary_replacements failed for %s: %v", p.GameID, err)
		return createErrorResponse("glossary_replacements", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success":      true,
		"replacements": replacements,
		"count":        len(replacements),
	})
}
