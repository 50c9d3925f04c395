package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/tm"
)

// requireNonBlank returns a validation error for the first blank field.
// Pairs are {field name, value}.
func requireNonBlank(pairs ...[2]string) error {
	for _, p := range pairs {
		if strings.TrimSpace(p[1]) == "" {
			return gserrors.NewValidationError(p[0], "is required")
		}
	}
	return nil
}

// SearchParams are the arguments of the tm_search tool
type SearchParams struct {
	Query         string  `json:"query"`
	SourceLang    string  `json:"source_lang"`
	TargetLang    string  `json:"target_lang"`
	MinSimilarity float64 `json:"min_similarity,omitempty"`
	MaxResults    int     `json:"max_results,omitempty"`
}

func (s *Server) handleTMSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p SearchParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("tm_search", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank(
		[2]string{"query", p.Query},
		[2]string{"source_lang", p.SourceLang},
		[2]string{"target_lang", p.TargetLang},
	); err != nil {
		return createErrorResponse("tm_search", err)
	}

	opts := tm.SearchOptions{
		MinSimilarity: s.cfg.Search.MinSimilarity,
		MaxResults:    s.cfg.Search.MaxResults,
	}
	if p.MinSimilarity > 0 {
		opts.MinSimilarity = p.MinSimilarity
	}
	if p.MaxResults > 0 {
		opts.MaxResults = p.MaxResults
	}

	matches, err := s.engine.Search(p.Query, p.SourceLang, p.TargetLang, opts)
	if err != nil {
		s.diagnosticLogger.Errorf("tm_search failed: %v", err)
		return createErrorResponse("tm_search", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"query":   p.Query,
		"matches": matches,
		"count":   len(matches),
	})
}

// UpsertParams are the arguments of the tm_upsert tool
type UpsertParams struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	SourceText string `json:"source_text"`
	TargetText string `json:"target_text"`
	Context    string `json:"context,omitempty"`
	GameID     string `json:"game_id,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

func (s *Server) handleTMUpsert(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p UpsertParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("tm_upsert", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank(
		[2]string{"source_lang", p.SourceLang},
		[2]string{"target_lang", p.TargetLang},
	); err != nil {
		return createErrorResponse("tm_upsert", err)
	}

	unit, err := s.engine.Upsert(tm.UpsertRequest{
		SourceLang: p.SourceLang,
		TargetLang: p.TargetLang,
		SourceText: p.SourceText,
		TargetText: p.TargetText,
		Context:    p.Context,
		GameID:     p.GameID,
		Provider:   p.Provider,
	})
	if err != nil {
		s.diagnosticLogger.Errorf("tm_upsert failed: %v", err)
		return createErrorResponse("tm_upsert", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"unit":    unit,
	})
}

// BatchUpsertParams are the arguments of the tm_batch_upsert tool
type BatchUpsertParams struct {
	SourceLang string      `json:"source_lang"`
	TargetLang string      `json:"target_lang"`
	Pairs      []PairParam `json:"pairs"`
	GameID     string      `json:"game_id,omitempty"`
	Provider   string      `json:"provider,omitempty"`
}

// PairParam is one source/target pair in a batch
type PairParam struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

func (s *Server) handleTMBatchUpsert(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p BatchUpsertParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("tm_batch_upsert", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank(
		[2]string{"source_lang", p.SourceLang},
		[2]string{"target_lang", p.TargetLang},
	); err != nil {
		return createErrorResponse("tm_batch_upsert", err)
	}
	if len(p.Pairs) == 0 {
		return createErrorResponse("tm_batch_upsert", gserrors.NewValidationError("pairs", "must not be empty"))
	}

	pairs := make([]tm.Pair, len(p.Pairs))
	for i, pair := range p.Pairs {
		pairs[i] = tm.Pair{Source: pair.Source, Target: pair.Target}
	}

	added, err := s.engine.BatchUpsert(pairs, p.SourceLang, p.TargetLang, tm.BatchOptions{
		GameID:   p.GameID,
		Provider: p.Provider,
	})
	if err != nil {
		s.diagnosticLogger.Errorf("tm_batch_upsert failed: %v", err)
		return createErrorResponse("tm_batch_upsert", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"added":   added,
	})
}

// ImportTMXParams are the arguments of the tm_import_tmx tool
type ImportTMXParams struct {
	Path       string `json:"path"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

func (s *Server) handleTMImportTMX(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p ImportTMXParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("tm_import_tmx", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank(
		[2]string{"path", p.Path},
		[2]string{"source_lang", p.SourceLang},
		[2]string{"target_lang", p.TargetLang},
	); err != nil {
		return createErrorResponse("tm_import_tmx", err)
	}

	imported, err := s.engine.ImportTMX(p.Path, p.SourceLang, p.TargetLang)
	if err != nil {
		s.diagnosticLogger.Errorf("tm_import_tmx failed for %s: %v", p.Path, err)
		return createErrorResponse("tm_import_tmx", err)
	}

	s.diagnosticLogger.Printf("imported %d units from %s", imported, p.Path)
	return createJSONResponse(map[string]interface{}{
		"success":  true,
		"imported": imported,
		"path":     p.Path,
	})
}

// ExportTMXParams are the arguments of the tm_export_tmx tool
type ExportTMXParams struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	OutputPath string `json:"output_path"`
}

func (s *Server) handleTMExportTMX(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p ExportTMXParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("tm_export_tmx", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank(
		[2]string{"source_lang", p.SourceLang},
		[2]string{"target_lang", p.TargetLang},
		[2]string{"output_path", p.OutputPath},
	); err != nil {
		return createErrorResponse("tm_export_tmx", err)
	}

	path, err := s.engine.ExportTMX(p.SourceLang, p.TargetLang, p.OutputPath)
	if err != nil {
		s.diagnosticLogger.Errorf("tm_export_tmx failed: %v", err)
		return createErrorResponse("tm_export_tmx", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"path":    path,
	})
}

func (s *Server) handleTMList(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.engine.List()
	if err != nil {
		s.diagnosticLogger.Errorf("tm_list failed: %v", err)
		return createErrorResponse("tm_list", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success":  true,
		"memories": infos,
		"count":    len(infos),
	})
}

// PairRequestParams name a language pair for tm_get, tm_delete and tm_stats
type PairRequestParams struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

func (p *PairRequestParams) validate() error {
	return requireNonBlank(
		[2]string{"source_lang", p.SourceLang},
		[2]string{"target_lang", p.TargetLang},
	)
}

func (s *Server) handleTMGet(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p PairRequestParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("tm_get", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := p.validate(); err != nil {
		return createErrorResponse("tm_get", err)
	}

	memory, err := s.engine.Get(p.SourceLang, p.TargetLang)
	if err != nil {
		s.diagnosticLogger.Errorf("tm_get failed for %s-%s: %v", p.SourceLang, p.TargetLang, err)
		return createErrorResponse("tm_get", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"memory":  memory,
	})
}

func (s *Server) handleTMDelete(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p PairRequestParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("tm_delete", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := p.validate(); err != nil {
		return createErrorResponse("tm_delete", err)
	}

	if err := s.engine.Delete(p.SourceLang, p.TargetLang); err != nil {
		s.diagnosticLogger.Errorf("tm_delete failed for %s-%s: %v", p.SourceLang, p.TargetLang, err)
		return createErrorResponse("tm_delete", err)
	}

	s.diagnosticLogger.Printf("deleted memory %s-%s", p.SourceLang, p.TargetLang)
	return createJSONResponse(map[string]interface{}{
		"success":     true,
		"source_lang": p.SourceLang,
		"target_lang": p.TargetLang,
	})
}

func (s *Server) handleTMStats(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p PairRequestParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("tm_stats", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := p.validate(); err != nil {
		return createErrorResponse("tm_stats", err)
	}

	stats, err := s.engine.Stats(p.SourceLang, p.TargetLang)
	if err != nil {
		s.diagnosticLogger.Errorf("tm_stats failed for %s-%s: %v", p.SourceLang, p.TargetLang, err)
		return createErrorResponse("tm_stats", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}
