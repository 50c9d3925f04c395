package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gamestringer/gamestringer/internal/router"
)

func translateCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: gamestringer translate --target <lang> <text>")
	}
	text := strings.Join(c.Args().Slice(), " ")

	targetLang := c.String("target")
	if targetLang == "" {
		return fmt.Errorf("target language is required (--target)")
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	result, err := env.translator.Translate(c.Context, router.Request{
		Text:       text,
		SourceLang: c.String("source"),
		TargetLang: targetLang,
		Preferred:  router.Backend(c.String("backend")),
	})
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Println(result.TranslatedText)
	fmt.Printf("  backend=%s confidence=%.2f chars=%d cost=$%.6f time=%dms\n",
		result.Backend, result.Confidence, result.CharacterCount, result.CostEstimate, result.ProcessingTimeMS)
	return nil
}
