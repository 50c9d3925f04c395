package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gamestringer/gamestringer/internal/glossary"
	"github.com/gamestringer/gamestringer/internal/types"
)

func glossarySubcommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "create",
			Usage:     "Create an empty glossary for a game",
			ArgsUsage: "<game-id>",
			Flags: append(langFlags(),
				&cli.StringFlag{
					Name:    "name",
					Aliases: []string{"n"},
					Usage:   "Display name of the game (default: the game id)",
				},
			),
			Action: glossaryCreateCommand,
		},
		{
			Name:      "show",
			Usage:     "Show a game's glossary",
			ArgsUsage: "<game-id>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "json",
					Aliases: []string{"j"},
					Usage:   "Output as JSON",
				},
			},
			Action: glossaryShowCommand,
		},
		{
			Name:   "list",
			Usage:  "List every stored glossary",
			Action: glossaryListCommand,
		},
		{
			Name:      "add-term",
			Usage:     "Add a fixed term translation to a game's glossary",
			ArgsUsage: "<game-id> <original> <translation>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "case-sensitive",
					Usage: "Match the term only in its exact casing",
				},
				&cli.StringFlag{
					Name:  "context",
					Usage: "Where the term appears (menu, dialog, lore, ...)",
				},
				&cli.StringFlag{
					Name:  "notes",
					Usage: "Translator notes for the term",
				},
			},
			Action: glossaryAddTermCommand,
		},
		{
			Name:      "import-terms",
			Usage:     "Merge terms from a hand-editable TOML file",
			ArgsUsage: "<game-id> <terms.toml>",
			Action:    glossaryImportTermsCommand,
		},
		{
			Name:      "export",
			Usage:     "Export a glossary as a versioned JSON envelope",
			ArgsUsage: "<game-id>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "Output path (default: stdout)",
				},
			},
			Action: glossaryExportCommand,
		},
		{
			Name:      "import",
			Usage:     "Import a glossary from an exported JSON envelope",
			ArgsUsage: "<glossary.json>",
			Action:    glossaryImportCommand,
		},
		{
			Name:      "replace",
			Usage:     "Show the glossary replacements that apply to a text",
			ArgsUsage: "<game-id> <text>",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "json",
					Aliases: []string{"j"},
					Usage:   "Output as JSON",
				},
			},
			Action: glossaryReplaceCommand,
		},
		{
			Name:      "dnt",
			Usage:     "Replace a game's do-not-translate term list",
			ArgsUsage: "<game-id> <term>...",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "clear",
					Usage: "Clear the list instead of replacing it",
				},
			},
			Action: glossaryDNTCommand,
		},
	}
}

func glossaryCreateCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: gamestringer glossary create --target <lang> <game-id>")
	}
	gameID := c.Args().First()

	sourceLang, targetLang, err := pairFromFlags(c)
	if err != nil {
		return err
	}

	name := c.String("name")
	if name == "" {
		name = gameID
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	g, err := env.glossaries.Create(gameID, name, sourceLang, targetLang)
	if err != nil {
		return err
	}
	fmt.Printf("Created glossary %q for game %s (%s)\n", g.GameName, g.GameID, types.PairLabel(sourceLang, targetLang))
	return nil
}

func glossaryShowCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: gamestringer glossary show <game-id>")
	}
	gameID := c.Args().First()

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	g, err := env.glossaries.Get(gameID)
	if err != nil {
		return err
	}
	if g == nil {
		fmt.Printf("No glossary for game %q\n", gameID)
		return nil
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(g)
	}

	fmt.Printf("%s (%s, %s)\n", g.GameName, g.GameID, types.PairLabel(g.SourceLanguage, g.TargetLanguage))
	if g.Metadata.Genre != "" {
		fmt.Printf("  genre: %s", g.Metadata.Genre)
		if g.Metadata.Tone != "" {
			fmt.Printf(", tone: %s", g.Metadata.Tone)
		}
		fmt.Println()
	}
	fmt.Printf("  %d term(s)\n", len(g.Entries))
	for _, e := range g.Entries {
		marker := ""
		if e.CaseSensitive {
			marker = " (case-sensitive)"
		}
		fmt.Printf("    %s → %s%s\n", e.Original, e.Translation, marker)
	}
	if len(g.Metadata.DoNotTranslate) > 0 {
		fmt.Printf("  do not translate: %s\n", strings.Join(g.Metadata.DoNotTranslate, ", "))
	}
	return nil
}

func glossaryListCommand(c *cli.Context) error {
	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	glossaries, err := env.glossaries.List()
	if err != nil {
		return err
	}
	if len(glossaries) == 0 {
		fmt.Println("No glossaries found")
		return nil
	}

	fmt.Printf("Glossaries in %s:\n\n", env.glossaries.Dir())
	for _, g := range glossaries {
		fmt.Printf("  %-20s %q, %s, %d term(s)\n",
			g.GameID, g.GameName, types.PairLabel(g.SourceLanguage, g.TargetLanguage), len(g.Entries))
	}
	return nil
}

func glossaryAddTermCommand(c *cli.Context) error {
	if c.NArg() < 3 {
		return errors.New("usage: gamestringer glossary add-term <game-id> <original> <translation>")
	}
	gameID := c.Args().Get(0)

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	entry, err := env.glossaries.AddEntry(gameID, glossary.NewEntry{
		Original:      c.Args().Get(1),
		Translation:   c.Args().Get(2),
		CaseSensitive: c.Bool("case-sensitive"),
		Context:       c.String("context"),
		Notes:         c.String("notes"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Added term %q → %q to %s\n", entry.Original, entry.Translation, gameID)
	return nil
}

func glossaryImportTermsCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("usage: gamestringer glossary import-terms <game-id> <terms.toml>")
	}
	gameID := c.Args().Get(0)
	path := c.Args().Get(1)

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	added, err := env.glossaries.ImportTerms(gameID, path)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d new term(s) from %s into %s\n", added, path, gameID)
	return nil
}

func glossaryExportCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: gamestringer glossary export <game-id>")
	}
	gameID := c.Args().First()

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	data, err := env.glossaries.ExportJSON(gameID)
	if err != nil {
		return err
	}

	if outputPath := c.String("output"); outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outputPath, err)
		}
		fmt.Printf("Exported glossary %s to %s\n", gameID, outputPath)
		return nil
	}

	fmt.Printf("%s\n", data)
	return nil
}

func glossaryImportCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: gamestringer glossary import <glossary.json>")
	}
	path := c.Args().First()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	g, err := env.glossaries.ImportJSON(content)
	if err != nil {
		return err
	}
	fmt.Printf("Imported glossary %q for game %s (%d term(s))\n", g.GameName, g.GameID, len(g.Entries))
	return nil
}

func glossaryReplaceCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("usage: gamestringer glossary replace <game-id> <text>")
	}
	gameID := c.Args().First()
	text := strings.Join(c.Args().Tail(), " ")

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	replacements, err := env.glossaries.Replacements(gameID, text)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		output := map[string]interface{}{
			"game_id":      gameID,
			"text":         text,
			"count":        len(replacements),
			"replacements": replacements,
		}
		return json.NewEncoder(os.Stdout).Encode(output)
	}

	if len(replacements) == 0 {
		fmt.Printf("No glossary replacements apply to this text for game %q\n", gameID)
		return nil
	}

	fmt.Printf("%d replacement(s):\n", len(replacements))
	for _, r := range replacements {
		if r.Original == r.Translation {
			fmt.Printf("  %s (do not translate)\n", r.Original)
		} else {
			fmt.Printf("  %s → %s\n", r.Original, r.Translation)
		}
	}
	return nil
}

func glossaryDNTCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: gamestringer glossary dnt <game-id> <term>... (or --clear)")
	}
	gameID := c.Args().First()
	terms := c.Args().Tail()

	if len(terms) == 0 && !c.Bool("clear") {
		return errors.New("usage: gamestringer glossary dnt <game-id> <term>... (or --clear)")
	}
	if c.Bool("clear") {
		terms = []string{}
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	g, err := env.glossaries.UpdateMetadata(gameID, glossary.MetadataPatch{DoNotTranslate: terms})
	if err != nil {
		return err
	}

	if len(g.Metadata.DoNotTranslate) == 0 {
		fmt.Printf("Cleared do-not-translate list for %s\n", gameID)
		return nil
	}
	fmt.Printf("Do-not-translate list for %s: %s\n", gameID, strings.Join(g.Metadata.DoNotTranslate, ", "))
	return nil
}
