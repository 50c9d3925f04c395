package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	gserrors "github.com/gamestringer/gamestringer/internal/errors"
	"github.com/gamestringer/gamestringer/internal/tm"
	"github.com/gamestringer/gamestringer/internal/types"
)

// importConcurrency bounds parallel TMX imports; merges into the same
// language pair serialize on the engine's pair lock anyway.
const importConcurrency = 4

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: gamestringer search [--source en] --target <lang> <query>")
	}
	query := strings.Join(c.Args().Slice(), " ")

	sourceLang, targetLang, err := pairFromFlags(c)
	if err != nil {
		return err
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	opts := tm.SearchOptions{
		MinSimilarity: env.cfg.Search.MinSimilarity,
		MaxResults:    env.cfg.Search.MaxResults,
	}
	if c.IsSet("min-similarity") {
		opts.MinSimilarity = c.Float64("min-similarity")
	}
	if c.IsSet("max-results") {
		opts.MaxResults = c.Int("max-results")
	}

	start := time.Now()
	matches, err := env.engine.Search(query, sourceLang, targetLang, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	elapsed := time.Since(start)

	if c.Bool("json") {
		output := map[string]interface{}{
			"query":   query,
			"time_ms": float64(elapsed.Microseconds()) / 1000.0,
			"count":   len(matches),
			"matches": matches,
		}
		return json.NewEncoder(os.Stdout).Encode(output)
	}

	fmt.Printf("Found %d matches in %.1fms (%s)\n\n",
		len(matches), float64(elapsed.Microseconds())/1000.0, types.PairLabel(sourceLang, targetLang))

	for i, m := range matches {
		fmt.Printf("%2d. [%-8s %5.1f%%] %s\n", i+1, m.MatchType, m.Similarity*100, m.Unit.SourceText)
		fmt.Printf("    → %s\n", m.Unit.TargetText)
		details := []string{fmt.Sprintf("provider %s", m.Unit.Provider), fmt.Sprintf("used %d", m.Unit.UsageCount)}
		if m.Unit.Verified {
			details = append(details, "verified")
		}
		if m.Unit.Context != "" {
			details = append(details, "context "+m.Unit.Context)
		}
		fmt.Printf("    %s\n", strings.Join(details, ", "))
	}

	return nil
}

func addCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("usage: gamestringer add --target <lang> <source-text> <target-text>")
	}

	sourceLang, targetLang, err := pairFromFlags(c)
	if err != nil {
		return err
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	unit, err := env.engine.Upsert(tm.UpsertRequest{
		SourceLang: sourceLang,
		TargetLang: targetLang,
		SourceText: c.Args().Get(0),
		TargetText: c.Args().Get(1),
		Context:    c.String("context"),
		GameID:     c.String("game"),
	})
	if err != nil {
		return err
	}

	verb := "Added"
	if unit.UsageCount > 1 {
		verb = "Updated"
	}
	fmt.Printf("%s %q → %q (%s)\n", verb, unit.SourceText, unit.TargetText, types.PairLabel(sourceLang, targetLang))
	fmt.Printf("  id=%s usage=%d\n", unit.ID, unit.UsageCount)
	return nil
}

func batchAddCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: gamestringer batch-add --target <lang> <pairs.tsv>")
	}
	path := c.Args().First()

	sourceLang, targetLang, err := pairFromFlags(c)
	if err != nil {
		return err
	}

	pairs, skipped, err := readPairsTSV(path)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("no source/target pairs found in %s", path)
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	added, err := env.engine.BatchUpsert(pairs, sourceLang, targetLang, tm.BatchOptions{
		GameID: c.String("game"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Added %d of %d pair(s) from %s (%s)\n", added, len(pairs), path, types.PairLabel(sourceLang, targetLang))
	if skipped > 0 {
		fmt.Printf("  skipped %d line(s) without a tab separator\n", skipped)
	}
	return nil
}

// readPairsTSV parses one source<TAB>target pair per line. Blank lines are
// ignored, lines without a tab are counted as skipped, and any third column
// is dropped so spreadsheet exports with extra columns still load.
func readPairsTSV(path string) ([]tm.Pair, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var pairs []tm.Pair
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		source, rest, found := strings.Cut(line, "\t")
		if !found {
			skipped++
			continue
		}
		target, _, _ := strings.Cut(rest, "\t")
		pairs = append(pairs, tm.Pair{Source: source, Target: target})
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return pairs, skipped, nil
}

func importCommand(c *cli.Context) error {
	sourceLang, targetLang, err := pairFromFlags(c)
	if err != nil {
		return err
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	if pattern := c.String("glob"); pattern != "" {
		return importGlob(env, pattern, sourceLang, targetLang)
	}

	if c.NArg() < 1 {
		return errors.New("usage: gamestringer import --target <lang> <file.tmx> (or --glob 'dir/**/*.tmx')")
	}
	path := c.Args().First()

	added, err := env.engine.ImportTMX(path, sourceLang, targetLang)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d new unit(s) from %s (%s)\n", added, path, types.PairLabel(sourceLang, targetLang))
	return nil
}

// importGlob imports every TMX file matching pattern concurrently. A file
// that fails to import is reported and skipped; the others still land. The
// aggregated error makes the exit code reflect partial failure.
func importGlob(env *appEnv, pattern, sourceLang, targetLang string) error {
	files, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return fmt.Errorf("bad glob pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files match %q", pattern)
	}
	sort.Strings(files)

	type outcome struct {
		added int
		err   error
	}
	outcomes := make([]outcome, len(files))

	g := new(errgroup.Group)
	g.SetLimit(importConcurrency)
	for i, path := range files {
		g.Go(func() error {
			added, err := env.engine.ImportTMX(path, sourceLang, targetLang)
			outcomes[i] = outcome{added: added, err: err}
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	var failures []error
	for i, path := range files {
		if outcomes[i].err != nil {
			fmt.Printf("  %s: FAILED: %v\n", path, outcomes[i].err)
			failures = append(failures, fmt.Errorf("%s: %w", path, outcomes[i].err))
			continue
		}
		fmt.Printf("  %s: +%d\n", path, outcomes[i].added)
		total += outcomes[i].added
	}

	fmt.Printf("Imported %d new unit(s) from %d of %d file(s) (%s)\n",
		total, len(files)-len(failures), len(files), types.PairLabel(sourceLang, targetLang))
	return gserrors.NewMultiError(failures).ErrOrNil()
}

func exportCommand(c *cli.Context) error {
	sourceLang, targetLang, err := pairFromFlags(c)
	if err != nil {
		return err
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	outputPath := c.String("output")
	if outputPath == "" {
		outputPath = types.PairKey(sourceLang, targetLang) + ".tmx"
	}

	path, err := env.engine.ExportTMX(sourceLang, targetLang, outputPath)
	if err != nil {
		return err
	}
	fmt.Printf("Exported translation memory %s to %s\n", types.PairLabel(sourceLang, targetLang), path)
	return nil
}

func listCommand(c *cli.Context) error {
	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	infos, err := env.engine.List()
	if err != nil {
		return err
	}

	if c.Bool("json") {
		output := map[string]interface{}{
			"count":    len(infos),
			"memories": infos,
		}
		return json.NewEncoder(os.Stdout).Encode(output)
	}

	if len(infos) == 0 {
		fmt.Printf("No translation memories in %s\n", env.store.Dir())
		return nil
	}

	fmt.Printf("Translation memories in %s:\n\n", env.store.Dir())
	for _, info := range infos {
		fmt.Printf("  %-10s %6d unit(s), %d verified, updated %s\n",
			types.PairLabel(info.SourceLanguage, info.TargetLanguage),
			info.UnitCount, info.VerifiedCount, info.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	sourceLang, targetLang, err := pairFromFlags(c)
	if err != nil {
		return err
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	if err := env.engine.Delete(sourceLang, targetLang); err != nil {
		return err
	}
	fmt.Printf("Deleted translation memory %s\n", types.PairLabel(sourceLang, targetLang))
	return nil
}

func statsCommand(c *cli.Context) error {
	sourceLang, targetLang, err := pairFromFlags(c)
	if err != nil {
		return err
	}

	env, err := buildEnv(c)
	if err != nil {
		return err
	}

	stats, err := env.engine.Stats(sourceLang, targetLang)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		output := map[string]interface{}{
			"source_language": sourceLang,
			"target_language": targetLang,
			"stats":           stats,
		}
		return json.NewEncoder(os.Stdout).Encode(output)
	}

	fmt.Printf("Translation memory %s\n", types.PairLabel(sourceLang, targetLang))
	fmt.Printf("  units:      %d (%d verified)\n", stats.TotalUnits, stats.VerifiedUnits)
	fmt.Printf("  usage:      %d\n", stats.TotalUsageCount)
	fmt.Printf("  confidence: %.2f\n", stats.AverageConfidence)
	if len(stats.ByProvider) > 0 {
		fmt.Printf("  providers:  %s\n", formatCounts(stats.ByProvider))
	}
	if len(stats.ByContext) > 0 {
		fmt.Printf("  contexts:   %s\n", formatCounts(stats.ByContext))
	}
	return nil
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
