package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/router"
)

// TranslateParams are the arguments of the translate tool
type TranslateParams struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
	SourceLang string `json:"source_lang,omitempty"`
	Backend    string `json:"backend,omitempty"`
}

func (s *Server) handleTranslate(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p TranslateParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("translate", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank(
		[2]string{"text", p.Text},
		[2]string{"target_lang", p.TargetLang},
	); err != nil {
		return createErrorResponse("translate", err)
	}

	result, err := s.translator.Translate(ctx, router.Request{
		Text:       p.Text,
		SourceLang: p.SourceLang,
		TargetLang: p.TargetLang,
		Preferred:  router.Backend(p.Backend),
	})
	if err != nil {
		s.diagnosticLogger.Errorf("translate failed: %v", err)
		return createErrorResponse("translate", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"result":  result,
	})
}

// TranslateBatchParams are the arguments of the translate_batch tool
type TranslateBatchParams struct {
	Texts      []string `json:"texts"`
	TargetLang string   `json:"target_lang"`
	SourceLang string   `json:"source_lang,omitempty"`
}

func (s *Server) handleTranslateBatch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p TranslateBatchParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return createErrorResponse("translate_batch", fmt.Errorf("invalid parameters: %w", err))
	}
	if err := requireNonBlank([2]string{"target_lang", p.TargetLang}); err != nil {
		return createErrorResponse("translate_batch", err)
	}
	if len(p.Texts) == 0 {
		return createErrorResponse("translate_batch", gserrors.NewValidationError("texts", "must not be empty"))
	}

	results, err := s.translator.TranslateBatch(ctx, p.Texts, p.SourceLang, p.TargetLang)
	if err != nil && len(results) == 0 {
		s.diagnosticLogger.Errorf("translate_batch failed: %v", err)
		return createErrorResponse("translate_batch", err)
	}

	response := map[string]interface{}{
		"success": true,
		"results": results,
		"count":   len(results),
	}
	// Partial failures ride along with the results that made it.
	if failures := errorStrings(err); len(failures) > 0 {
		response["errors"] = failures
		response["failed"] = len(failures)
	}
	return createJSONResponse(response)
}

func (s *Server) handleBackendMetrics(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metrics := s.translator.Metrics()

	rateLimits := make(map[string]int)
	for backend := range s.translator.Config().Backends {
		rateLimits[string(backend)] = s.translator.RateLimitRemaining(backend)
	}

	return createJSONResponse(map[string]interface{}{
		"success":              true,
		"metrics":              metrics,
		"rate_limit_remaining": rateLimits,
	})
}

func (s *Server) handleGamesList(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Scanning is skip-and-continue: a store that fails is reported
	// alongside whatever the other stores found.
	installed, err := s.registry.ScanAll(ctx)

	response := map[string]interface{}{
		"success": true,
		"games":   installed,
		"count":   len(installed),
	}
	if failures := errorStrings(err); len(failures) > 0 {
		s.diagnosticLogger.Errorf("games_list: %d store(s) failed to scan", len(failures))
		response["errors"] = failures
	}
	return createJSONResponse(response)
}

// errorStrings flattens a MultiError into client-readable messages.
// A plain error yields a single message; nil yields none.
func errorStrings(err error) []string {
	if err == nil {
		return nil
	}
	var multi *gserrors.MultiError
	if errors.As(err, &multi) {
		out := make([]string, 0, len(multi.Errors))
		for _, e := range multi.Errors {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
