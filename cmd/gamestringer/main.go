package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/gamestringer/gamestringer/internal/config"
	"github.com/gamestringer/gamestringer/internal/debug"
	"github.com/gamestringer/gamestringer/internal/glossary"
	"github.com/gamestringer/gamestringer/internal/router"
	"github.com/gamestringer/gamestringer/internal/store"
	"github.com/gamestringer/gamestringer/internal/tm"
	"github.com/gamestringer/gamestringer/internal/version"
)

var Version = version.Version // Use centralized version management

// appEnv bundles the services a command needs, wired from one config load.
// Commands build it on demand; construction only touches the filesystem to
// ensure the data directories exist.
type appEnv struct {
	cfg        *config.Config
	store      *store.Store
	engine     *tm.Engine
	glossaries *glossary.Service
	translator *router.Router
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if dirFlag := c.String("data-dir"); dirFlag != "" {
		// Convert to absolute path to ensure consistent path handling
		absDir, err := filepath.Abs(dirFlag)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data dir %q: %w", dirFlag, err)
		}
		cfg.Data.Dir = absDir
	}

	applyEnvAPIKeys(cfg)
	return cfg, nil
}

// applyEnvAPIKeys fills empty backend API keys from the environment
// (DEEPL_API_KEY, YANDEX_API_KEY, ...). A key set in the config file wins.
func applyEnvAPIKeys(cfg *config.Config) {
	for name, bc := range cfg.Backends.Backends {
		if bc.APIKey != "" {
			continue
		}
		if key := os.Getenv(strings.ToUpper(string(name)) + "_API_KEY"); key != "" {
			bc.APIKey = key
			cfg.Backends.Backends[name] = bc
		}
	}
}

func buildEnv(c *cli.Context) (*appEnv, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}

	st, err := store.NewStore(cfg.Data.Dir)
	if err != nil {
		return nil, err
	}

	glossaries, err := glossary.NewService(filepath.Join(cfg.Data.Dir, "glossaries"))
	if err != nil {
		return nil, err
	}

	return &appEnv{
		cfg:        cfg,
		store:      st,
		engine:     tm.NewEngine(st),
		glossaries: glossaries,
		translator: router.NewRouter(cfg.Backends),
	}, nil
}

// langFlags returns the source/target language flags shared by the
// translation memory commands. Source defaults to English, the usual
// authoring language of game text; target must be given.
func langFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Source language code",
			Value:   "en",
		},
		&cli.StringFlag{
			Name:    "target",
			Aliases: []string{"t"},
			Usage:   "Target language code",
		},
	}
}

// pairFromFlags reads the language pair flags, rejecting a missing target
func pairFromFlags(c *cli.Context) (sourceLang, targetLang string, err error) {
	sourceLang = c.String("source")
	targetLang = c.String("target")
	if targetLang == "" {
		return "", "", fmt.Errorf("target language is required (--target)")
	}
	return sourceLang, targetLang, nil
}

func main() {
	app := &cli.App{
		Name:                   "gamestringer",
		Usage:                  "Fuzzy translation memory engine for game localization",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.DefaultFileName,
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Translation memory directory (overrides config)",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Write debug output to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			// .env keeps backend API keys and GAMESTRINGER_DATA out of
			// the shell profile; a missing file is fine.
			_ = godotenv.Load()

			if c.Bool("debug") {
				os.Setenv("GAMESTRINGER_DEBUG", "1")
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Search the translation memory for a text",
				ArgsUsage: "<query>",
				Flags: append(langFlags(),
					&cli.Float64Flag{
						Name:    "min-similarity",
						Aliases: []string{"m"},
						Usage:   "Similarity floor for fuzzy matches, 0..1 (negative disables)",
					},
					&cli.IntFlag{
						Name:    "max-results",
						Aliases: []string{"n"},
						Usage:   "Max number of matches",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				),
				Action: searchCommand,
			},
			{
				Name:      "add",
				Aliases:   []string{"a"},
				Usage:     "Add a translation or update an existing one",
				ArgsUsage: "<source-text> <target-text>",
				Flags: append(langFlags(),
					&cli.StringFlag{
						Name:  "context",
						Usage: "Usage context (menu, dialog, item, ...)",
					},
					&cli.StringFlag{
						Name:    "game",
						Aliases: []string{"g"},
						Usage:   "Game id to tag the unit with",
					},
				),
				Action: addCommand,
			},
			{
				Name:      "batch-add",
				Usage:     "Add source<TAB>target pairs from a TSV file",
				ArgsUsage: "<pairs.tsv>",
				Flags: append(langFlags(),
					&cli.StringFlag{
						Name:    "game",
						Aliases: []string{"g"},
						Usage:   "Game id to tag the units with",
					},
				),
				Action: batchAddCommand,
			},
			{
				Name:      "import",
				Usage:     "Import TMX files into the translation memory",
				ArgsUsage: "<file.tmx>",
				Flags: append(langFlags(),
					&cli.StringFlag{
						Name:    "glob",
						Aliases: []string{"g"},
						Usage:   "Import every file matching a glob pattern (e.g. --glob 'tmx/**/*.tmx')",
					},
				),
				Action: importCommand,
			},
			{
				Name:  "export",
				Usage: "Export a language pair as a TMX 1.4 document",
				Flags: append(langFlags(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (default: <source>_<target>.tmx)",
					},
				),
				Action: exportCommand,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List stored translation memories",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: listCommand,
			},
			{
				Name:    "delete",
				Aliases: []string{"rm"},
				Usage:   "Delete a language pair's translation memory",
				Flags:   langFlags(),
				Action:  deleteCommand,
			},
			{
				Name:  "stats",
				Usage: "Show aggregate statistics for a language pair",
				Flags: append(langFlags(),
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				),
				Action: statsCommand,
			},
			{
				Name:        "glossary",
				Aliases:     []string{"gl"},
				Usage:       "Manage per-game terminology glossaries",
				Subcommands: glossarySubcommands(),
			},
			{
				Name:      "translate",
				Aliases:   []string{"tr"},
				Usage:     "Translate a text through the configured machine translation backends",
				ArgsUsage: "<text>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Source language code (default: auto-detect)",
					},
					&cli.StringFlag{
						Name:    "target",
						Aliases: []string{"t"},
						Usage:   "Target language code",
					},
					&cli.StringFlag{
						Name:    "backend",
						Aliases: []string{"b"},
						Usage:   "Force a specific backend (deepl, yandex, papago, google)",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: translateCommand,
			},
			{
				Name:    "serve",
				Aliases: []string{"mcp"},
				Usage:   "Start MCP (Model Context Protocol) server with stdio transport",
				Action:  serveCommand,
			},
			{
				Name:   "version",
				Usage:  "Show detailed version information",
				Action: versionCommand,
			},
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func versionCommand(c *cli.Context) error {
	fmt.Println(version.FullInfo())
	return nil
}
