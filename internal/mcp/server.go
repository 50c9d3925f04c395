// Package mcp exposes the translation memory engine, glossaries,
// machine translation routing and game discovery over the Model
// Context Protocol. Tools speak JSON over stdio; every diagnostic
// goes to a log file because the protocol owns stdout and stderr.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gamestringer/gamestringer/internal/config"
	"github.com/gamestringer/gamestringer/internal/games"
	"github.com/gamestringer/gamestringer/internal/glossary"
	"github.com/gamestringer/gamestringer/internal/router"
	"github.com/gamestringer/gamestringer/internal/tm"
	"github.com/gamestringer/gamestringer/internal/version"
)

// Server wires the translation services into MCP tools.
type Server struct {
	engine     *tm.Engine
	glossaries *glossary.Service
	translator *router.Router
	registry   *games.Registry
	cfg        *config.Config

	server           *mcp.Server
	diagnosticLogger *DiagnosticLogger
}

// NewServer builds an MCP server around the given services. The
// registry may be nil; games_list then reports an empty library.
func NewServer(engine *tm.Engine, glossaries *glossary.Service, translator *router.Router, registry *games.Registry, cfg *config.Config) (*Server, error) {
	// File-based logging keeps stdio clean for the protocol.
	diagnosticLogger := NewDiagnosticLogger(true)

	if registry == nil {
		registry = games.NewRegistry()
	}

	s := &Server{
		engine:           engine,
		glossaries:       glossaries,
		translator:       translator,
		registry:         registry,
		cfg:              cfg,
		diagnosticLogger: diagnosticLogger,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "gamestringer-mcp-server",
		Version: version.Version,
	}, nil)

	s.registerTools()

	diagnosticLogger.Printf("MCP server initialized (data dir: %s)", cfg.Data.Dir)
	return s, nil
}

// Start runs the MCP server on stdio until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.diagnosticLogger.Printf("Starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Shutdown flushes and closes the diagnostic log. The data stores
// belong to the caller and are closed there.
func (s *Server) Shutdown(ctx context.Context) error {
	s.diagnosticLogger.Printf("Shutting down MCP server")
	return s.diagnosticLogger.Close()
}

// LogPath returns the diagnostic log location for troubleshooting.
func (s *Server) LogPath() string {
	return s.diagnosticLogger.GetLogPath()
}

func (s *Server) registerTools() {
	// Translation memory tools
	s.server.AddTool(&mcp.Tool{
		Name:        "tm_search",
		Description: "🔍 Search the translation memory for a source string. Returns exact, substring and fuzzy matches ranked by similarity, each with its stored translation.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Source text to look up",
				},
				"source_lang": {
					Type:        "string",
					Description: "Source language code (e.g. 'en')",
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code (e.g. 'it')",
				},
				"min_similarity": {
					Type:        "number",
					Description: "Minimum similarity between 0 and 1 (default from config)",
				},
				"max_results": {
					Type:        "integer",
					Description: "Maximum number of matches (default from config)",
				},
			},
			Required: []string{"query", "source_lang", "target_lang"},
		},
	}, s.handleTMSearch)

	s.server.AddTool(&mcp.Tool{
		Name:        "tm_upsert",
		Description: "Store a translation unit. An existing unit with the same source text is updated in place, otherwise a new unit is appended.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source_lang": {
					Type:        "string",
					Description: "Source language code",
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code",
				},
				"source_text": {
					Type:        "string",
					Description: "Original string",
				},
				"target_text": {
					Type:        "string",
					Description: "Translated string",
				},
				"context": {
					Type:        "string",
					Description: "Where the string appears in the game (menu, dialogue, item name)",
				},
				"game_id": {
					Type:        "string",
					Description: "Game the unit belongs to",
				},
				"provider": {
					Type:        "string",
					Description: "Origin of the translation (human, deepl, google, ...)",
				},
			},
			Required: []string{"source_lang", "target_lang", "source_text", "target_text"},
		},
	}, s.handleTMUpsert)

	s.server.AddTool(&mcp.Tool{
		Name:        "tm_batch_upsert",
		Description: "Store many translation pairs in one call. Pairs whose source text already exists are skipped; the memory is persisted once at the end.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source_lang": {
					Type:        "string",
					Description: "Source language code",
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code",
				},
				"pairs": {
					Type:        "array",
					Description: "Source/target pairs to store",
					Items: &jsonschema.Schema{
						Type: "object",
						Properties: map[string]*jsonschema.Schema{
							"source": {Type: "string", Description: "Original string"},
							"target": {Type: "string", Description: "Translated string"},
						},
						Required: []string{"source", "target"},
					},
				},
				"game_id": {
					Type:        "string",
					Description: "Game the pairs belong to",
				},
				"provider": {
					Type:        "string",
					Description: "Origin of the translations",
				},
			},
			Required: []string{"source_lang", "target_lang", "pairs"},
		},
	}, s.handleTMBatchUpsert)

	s.server.AddTool(&mcp.Tool{
		Name:        "tm_import_tmx",
		Description: "Import translation units from a TMX 1.4 file into the memory for a language pair.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Path to the .tmx file",
				},
				"source_lang": {
					Type:        "string",
					Description: "Source language code",
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code",
				},
			},
			Required: []string{"path", "source_lang", "target_lang"},
		},
	}, s.handleTMImportTMX)

	s.server.AddTool(&mcp.Tool{
		Name:        "tm_export_tmx",
		Description: "Export the memory for a language pair to a TMX 1.4 file for use in CAT tools.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source_lang": {
					Type:        "string",
					Description: "Source language code",
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code",
				},
				"output_path": {
					Type:        "string",
					Description: "Destination file path",
				},
			},
			Required: []string{"source_lang", "target_lang", "output_path"},
		},
	}, s.handleTMExportTMX)

	s.server.AddTool(&mcp.Tool{
		Name:        "tm_list",
		Description: "📋 List every stored translation memory with its language pair and unit count.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleTMList)

	s.server.AddTool(&mcp.Tool{
		Name:        "tm_get",
		Description: "Fetch the full translation memory for a language pair, including all units.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source_lang": {
					Type:        "string",
					Description: "Source language code",
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code",
				},
			},
			Required: []string{"source_lang", "target_lang"},
		},
	}, s.handleTMGet)

	s.server.AddTool(&mcp.Tool{
		Name:        "tm_delete",
		Description: "Delete the translation memory for a language pair. Removes the backing file.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source_lang": {
					Type:        "string",
					Description: "Source language code",
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code",
				},
			},
			Required: []string{"source_lang", "target_lang"},
		},
	}, s.handleTMDelete)

	s.server.AddTool(&mcp.Tool{
		Name:        "tm_stats",
		Description: "Unit count, last update time and provider breakdown for a language pair.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source_lang": {
					Type:        "string",
					Description: "Source language code",
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code",
				},
			},
			Required: []string{"source_lang", "target_lang"},
		},
	}, s.handleTMStats)

	// Glossary tools
	s.server.AddTool(&mcp.Tool{
		Name:        "glossary_create",
		Description: "🏷️ Create a per-game glossary that pins terminology (character names, item names, UI terms) for a language pair.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"game_id": {
					Type:        "string",
					Description: "Stable identifier for the game",
				},
				"game_name": {
					Type:        "string",
					Description: "Display name of the game",
				},
				"source_lang": {
					Type:        "string",
					Description: "Source language code",
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code",
				},
			},
			Required: []string{"game_id", "game_name", "source_lang", "target_lang"},
		},
	}, s.handleGlossaryCreate)

	s.server.AddTool(&mcp.Tool{
		Name:        "glossary_get",
		Description: "Fetch a game's glossary with all its entries.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"game_id": {
					Type:        "string",
					Description: "Game identifier",
				},
			},
			Required: []string{"game_id"},
		},
	}, s.handleGlossaryGet)

	s.server.AddTool(&mcp.Tool{
		Name:        "glossary_list",
		Description: "List every glossary with its game, language pair and entry count.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleGlossaryList)

	s.server.AddTool(&mcp.Tool{
		Name:        "glossary_add_entry",
		Description: "Add a term to a game's glossary. The glossary must already exist.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"game_id": {
					Type:        "string",
					Description: "Game identifier",
				},
				"original": {
					Type:        "string",
					Description: "Term in the source language",
				},
				"translation": {
					Type:        "string",
					Description: "Pinned translation",
				},
				"case_sensitive": {
					Type:        "boolean",
					Description: "Match the term only in this exact case",
				},
				"context": {
					Type:        "string",
					Description: "Where the term appears",
				},
				"notes": {
					Type:        "string",
					Description: "Translator notes",
				},
			},
			Required: []string{"game_id", "original", "translation"},
		},
	}, s.handleGlossaryAddEntry)

	s.server.AddTool(&mcp.Tool{
		Name:        "glossary_replacements",
		Description: "Find which glossary terms occur in a text, including do-not-translate terms as identity replacements.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"game_id": {
					Type:        "string",
					Description: "Game identifier",
				},
				"text": {
					Type:        "string",
					Description: "Text to scan for glossary terms",
				},
			},
			Required: []string{"game_id", "text"},
		},
	}, s.handleGlossaryReplacements)

	// Machine translation tools
	s.server.AddTool(&mcp.Tool{
		Name:        "translate",
		Description: "🌐 Translate a string through the configured backends. Picks the best backend by priority, cost and recent success rate, falling back down the ranking on failure.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"text": {
					Type:        "string",
					Description: "Text to translate",
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code",
				},
				"source_lang": {
					Type:        "string",
					Description: "Source language code (default 'en')",
				},
				"backend": {
					Type:        "string",
					Description: "Force a specific backend (deepl, yandex, papago, google)",
				},
			},
			Required: []string{"text", "target_lang"},
		},
	}, s.handleTranslate)

	s.server.AddTool(&mcp.Tool{
		Name:        "translate_batch",
		Description: "Translate several strings concurrently. Strings that fail are reported alongside the successful results.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"texts": {
					Type:        "array",
					Description: "Strings to translate",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"target_lang": {
					Type:        "string",
					Description: "Target language code",
				},
				"source_lang": {
					Type:        "string",
					Description: "Source language code (default 'en')",
				},
			},
			Required: []string{"texts", "target_lang"},
		},
	}, s.handleTranslateBatch)

	s.server.AddTool(&mcp.Tool{
		Name:        "backend_metrics",
		Description: "Per-backend request counts, failure counts, average latency, cache hit rate and remaining rate-limit budget.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleBackendMetrics)

	// Game library tools
	s.server.AddTool(&mcp.Tool{
		Name:        "games_list",
		Description: "🎮 Scan the registered store launchers for installed games. Stores that fail to scan are reported but do not block the rest.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleGamesList)
}
