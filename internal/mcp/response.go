package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse creates a standardized error response for MCP tools
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"kind":      errorKind(err),
		"operation": operation,
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}

	// CRITICAL: Set IsError=true per MCP SDK specification
	// "Any errors that originate from the tool should be reported inside the result
	// object, with isError set to true, not as an MCP protocol-level error response.
	// Otherwise, the LLM would not be able to see that an error occurred and self-correct."
	response.IsError = true

	return response, nil
}

// errorKind classifies a failure for clients that branch on error
// categories instead of parsing messages.
func errorKind(err error) string {
	var backendErr *gserrors.BackendError
	var configErr *gserrors.ConfigError
	switch {
	case gserrors.IsValidation(err):
		return "validation"
	case gserrors.IsNotFound(err):
		return "not_found"
	case gserrors.IsStorageIO(err):
		return "storage_io"
	case gserrors.IsDeserialization(err):
		return "deserialization"
	case errors.As(err, &backendErr):
		return "backend"
	case errors.As(err, &configErr):
		return "config"
	default:
		return "internal"
	}
}
