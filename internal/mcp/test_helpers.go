package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallTool invokes a tool handler in-process, bypassing the stdio
// transport. Tests get direct stack traces and no process plumbing.
// An error response (success=false) comes back as a Go error carrying
// the kind and message.
func (s *Server) CallTool(toolName string, params map[string]interface{}) (string, error) {
	ctx := context.Background()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      toolName,
			Arguments: paramsJSON,
		},
	}

	var result *mcp.CallToolResult

	switch toolName {
	case "tm_search":
		result, err = s.handleTMSearch(ctx, req)
	case "tm_upsert":
		result, err = s.handleTMUpsert(ctx, req)
	case "tm_batch_upsert":
		result, err = s.handleTMBatchUpsert(ctx, req)
	case "tm_import_tmx":
		result, err = s.handleTMImportTMX(ctx, req)
	case "tm_export_tmx":
		result, err = s.handleTMExportTMX(ctx, req)
	case "tm_list":
		result, err = s.handleTMList(ctx, req)
	case "tm_get":
		result, err = s.handleTMGet(ctx, req)
	case "tm_delete":
		result, err = s.handleTMDelete(ctx, req)
	case "tm_stats":
		result, err = s.handleTMStats(ctx, req)
	case "glossary_create":
		result, err = s.handleGlossaryCreate(ctx, req)
	case "glossary_get":
		result, err = s.handleGlossaryGet(ctx, req)
	case "glossary_list":
		result, err = s.handleGlossaryList(ctx, req)
	case "glossary_add_entry":
		result, err = s.handleGlossaryAddEntry(ctx, req)
	case "glossary_replacements":
		result, err = s.handleGlossaryReplacements(ctx, req)
	case "translate":
		result, err = s.handleTranslate(ctx, req)
	case "translate_batch":
		result, err = s.handleTranslateBatch(ctx, req)
	case "backend_metrics":
		result, err = s.handleBackendMetrics(ctx, req)
	case "games_list":
		result, err = s.handleGamesList(ctx, req)
	default:
		return "", fmt.Errorf("unknown tool: %s", toolName)
	}

	if err != nil {
		return "", err
	}

	if result != nil && len(result.Content) > 0 {
		if textContent, ok := result.Content[0].(*mcp.TextContent); ok {
			// Surface error responses as Go errors so tests can assert on them.
			var response map[string]interface{}
			if json.Unmarshal([]byte(textContent.Text), &response) == nil {
				if success, ok := response["success"].(bool); ok && !success {
					if errorMsg, ok := response["error"].(string); ok {
						kind, _ := response["kind"].(string)
						return "", fmt.Errorf("mcp error (%s): %s", kind, errorMsg)
					}
				}
			}
			return textContent.Text, nil
		}
	}

	return "", nil
}
