// Package main provides the gdeltpull command: it pulls timeline
// statistics and the complete article list for a configured query,
// optionally translates headlines, and bundles everything into a zip.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gdeltpull/internal/artlist"
	"gdeltpull/internal/bundle"
	"gdeltpull/internal/config"
	"gdeltpull/internal/gdelt"
	"gdeltpull/internal/logger"
	"gdeltpull/internal/translate"
)

// nowBufferHours keeps the default end time slightly behind real
// time; the API lags by a few minutes.
const nowBufferHours = 0.25

func main() {
	// 1. Command-Line Flags
	// ---------------------
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration")
	outputDir := flag.String("output", "", "Output directory (overrides config)")
	startFlag := flag.String("start", "", "Start timestamp YYYYMMDDHHMMSS (overrides config)")
	endFlag := flag.String("end", "", "End timestamp YYYYMMDDHHMMSS (overrides config)")
	translateTo := flag.String("translate", "", "Language code to translate headlines to (overrides config)")
	noSleep := flag.Bool("no-sleep", false, "Disable the inter-request delay - DO NOT use unless you know what you are doing")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}

	if *startFlag != "" {
		cfg.Time.Start = *startFlag
	}

	if *endFlag != "" {
		cfg.Time.End = *endFlag
	}

	if *translateTo != "" {
		cfg.Translation.Target = *translateTo
	}

	log := logger.NewLogger(cfg.Logging.Level)

	if err := run(cfg, *noSleep, log); err != nil {
		log.Error(fmt.Sprintf("❌ %v", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, noSleep bool, log *logger.Logger) error {
	ctx := context.Background()

	start, err := gdelt.ParseCursor(cfg.Time.Start)
	if err != nil {
		return fmt.Errorf("invalid start time: %w", err)
	}

	// A blank end means "now", minus a small buffer. The article loop
	// always needs a bound; only the mode pulls may stay open-ended.
	var end, modesEnd gdelt.Cursor

	if cfg.Time.End != "" {
		end, err = gdelt.ParseCursor(cfg.Time.End)
		if err != nil {
			return fmt.Errorf("invalid end time: %w", err)
		}

		modesEnd = end
	} else {
		end = gdelt.NowCursor(nowBufferHours)
	}

	if !start.Before(end) {
		return fmt.Errorf("start %s is not before end %s", start.Display(), end.Display())
	}

	query := gdelt.QuerySpec{
		Keywords:      cfg.Query.Keywords,
		KeywordFormat: cfg.Query.KeywordFormat,
		Language:      cfg.Query.Language,
		Country:       cfg.Query.Country,
		Domain:        cfg.Query.Domain,
		Theme:         cfg.Query.Theme,
		Custom:        cfg.Query.Custom,
	}

	if query.UsesFirstKeywordOnly() {
		log.Warn("⚠️  Unrecognized keyword format; only the first keyword will be used",
			"format", cfg.Query.KeywordFormat)
	}

	log.Info("🚀 Starting GDELT pull")
	log.Info(fmt.Sprintf("📍 Window: %s .. %s", start.Display(), end.Display()))

	// 2. Prepare the output directory
	// -------------------------------
	if err := os.RemoveAll(cfg.Output.Dir); err != nil {
		return fmt.Errorf("failed to clear output dir: %w", err)
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	manifest := bundle.Manifest{
		Keywords:      cfg.Query.Keywords,
		KeywordFormat: cfg.Query.KeywordFormat,
		Language:      cfg.Query.Language,
		Country:       cfg.Query.Country,
		Domain:        cfg.Query.Domain,
		Theme:         cfg.Query.Theme,
		Custom:        cfg.Query.Custom,
		Start:         start.Wire(),
		End:           cfg.Time.End,
		Translation:   cfg.Translation.Target,
	}

	if err := bundle.WriteManifest(filepath.Join(cfg.Output.Dir, "input.json"), manifest); err != nil {
		return err
	}

	// A config snapshot lets the next run reuse these parameters.
	if err := cfg.SaveConfig(filepath.Join(cfg.Output.Dir, "config.yaml")); err != nil {
		return err
	}

	limiter := gdelt.NewLimiter(cfg.RateLimit.Interval(), cfg.RateLimit.Disabled || noSleep)
	client := gdelt.NewClientWithConfig(gdelt.DefaultBaseURL, cfg.Retry.GetTimeout(), log)

	// 3. Fixed-interval modes
	// -----------------------
	log.Info("Phase 1: Timeline modes...")

	if err := client.PullModes(ctx, query, start, modesEnd, cfg.Output.Dir, limiter); err != nil {
		return fmt.Errorf("mode pulls failed: %w", err)
	}

	// 4. Article list convergence loop
	// --------------------------------
	log.Info("Phase 2: Article list...")

	checkpoint := filepath.Join(cfg.Output.Dir, "ArtList.csv")
	acc := artlist.NewAccumulator(checkpoint, log)
	loop := artlist.NewLoop(client.Articles(query), acc, limiter, cfg.Retry, log)

	result, err := loop.Run(ctx, start, end)
	if err != nil {
		return fmt.Errorf("article pull failed: %w", err)
	}

	log.Info(fmt.Sprintf("✅ %d unique articles in %d windows", result.TotalUnique, result.Iterations))

	// 5. Headline translation
	// -----------------------
	if target := cfg.Translation.Target; target != "" {
		log.Info("Phase 3: Translating headlines...", "target", target)

		translator := translate.NewCache(translate.NewGoogleTranslator(cfg.Retry.GetTimeout()))
		files := translate.NewFileTranslator(translator, log)

		for _, name := range []string{"ArtList", "TimelineVolInfo", "ToneChart"} {
			src := filepath.Join(cfg.Output.Dir, name+".csv")
			if _, err := os.Stat(src); err != nil {
				continue
			}

			dst := filepath.Join(cfg.Output.Dir, name+"Translated.csv")

			n, err := files.TranslateFile(ctx, src, dst, target)
			if err != nil {
				return fmt.Errorf("translation of %s failed: %w", name, err)
			}

			log.Info("Translated titles", "file", name, "cells", n)
		}
	}

	// 6. Headline dedup pass
	// ----------------------
	log.Info("Phase 4: Removing duplicate headlines...")

	for _, name := range []string{"ArtList", "ArtListTranslated"} {
		src := filepath.Join(cfg.Output.Dir, name+".csv")
		if _, err := os.Stat(src); err != nil {
			continue
		}

		dst := filepath.Join(cfg.Output.Dir, name+"NoDuplicates.csv")

		kept, dropped, err := artlist.DedupeHeadlines(src, dst)
		if err != nil {
			return fmt.Errorf("headline dedup of %s failed: %w", name, err)
		}

		log.Info("Deduplicated headlines", "file", name, "kept", kept, "dropped", dropped)
	}

	// 7. Bundle and report
	// --------------------
	log.Info("Phase 5: Bundling...")

	count, err := bundle.ZipDir(cfg.Output.Dir, cfg.Output.Archive)
	if err != nil {
		return fmt.Errorf("archiving failed: %w", err)
	}

	rows, err := bundle.CollectReport(cfg.Output.Dir)
	if err != nil {
		return err
	}

	log.Info("✨ Pull complete!")
	fmt.Println("\n------------------------------------------------")
	fmt.Println("📊 Summary Report")
	fmt.Println("------------------------------------------------")
	fmt.Print(bundle.RenderReport(rows))
	fmt.Println("------------------------------------------------")
	fmt.Printf("Archived %d files into %s\n", count, cfg.Output.Archive)

	return nil
}
