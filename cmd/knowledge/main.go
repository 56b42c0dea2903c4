// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/knowledge"
	"github.com/poiesic/knowledge/config"
	"github.com/poiesic/knowledge/core"
	"github.com/poiesic/knowledge/ingest"
)

func main() {
	app := &cli.App{
		Name:  "knowledge",
		Usage: "Incremental knowledge base over a document corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Scan the corpus and update the store incrementally",
				Action: ingestCommand,
				Flags: append(commonFlags(),
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Re-process every document regardless of its fingerprint",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks sent to the embedder per request",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of documents processed in parallel",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Query the store for relevant chunks",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append(commonFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   5,
					},
					&cli.BoolFlag{
						Name:  "hybrid",
						Usage: "Require every significant query word to appear in the chunk",
					},
				),
			},
			{
				Name:   "stats",
				Usage:  "Print document and chunk counts",
				Action: statsCommand,
				Flags:  commonFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
		},
		&cli.StringFlag{
			Name:  "corpus",
			Usage: "Corpus directory (overrides configuration)",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the BadgerDB store (overrides configuration)",
		},
	}
}

// loadConfig merges the configuration file, environment, and command-line
// overrides, then validates the result before anything touches the store.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if corpus := c.String("corpus"); corpus != "" {
		cfg.Corpus.Path = corpus
	}
	if db := c.String("db"); db != "" {
		cfg.Store.Path = db
	}
	if c.IsSet("batch-size") {
		cfg.Embedding.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("concurrency") {
		cfg.Ingest.Concurrency = c.Int("concurrency")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// One ingestion run at a time per store. The lock file sits next to the
	// database so concurrent runs against different stores stay independent.
	lockPath := cfg.Store.Path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return fmt.Errorf("preparing store directory: %w", err)
	}
	runLock := flock.New(lockPath)
	locked, err := runLock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring run lock: %w", err)
	}
	if !locked {
		return cli.Exit("another ingestion run is already using this store", 1)
	}
	defer runLock.Unlock()

	kb, err := knowledge.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening knowledge base: %w", err)
	}
	defer kb.Close()

	var barMu sync.Mutex
	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()
		if bar == nil {
			bar = newProgressBar(total, "Ingesting documents")
		}
		bar.Set(done)
	}

	coordinator, err := kb.NewCoordinator(ingest.WithProgress(progress))
	if err != nil {
		return fmt.Errorf("building coordinator: %w", err)
	}
	defer coordinator.Release()

	summary, err := coordinator.Run(ctx, c.Bool("force"))
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	barMu.Lock()
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	barMu.Unlock()

	printSummary(summary)

	if !summary.Ok() {
		return cli.Exit("", 1)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	kb, err := knowledge.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening knowledge base: %w", err)
	}
	defer kb.Close()

	searcher, err := kb.NewSearcher()
	if err != nil {
		return fmt.Errorf("building searcher: %w", err)
	}

	var hits []*core.SearchResult
	if c.Bool("hybrid") {
		hits, err = searcher.HybridSearch(ctx, query, c.Int("top-k"))
	} else {
		hits, err = searcher.Search(ctx, query, c.Int("top-k"))
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, hit := range hits {
		fmt.Printf("%s %s (chunk %d, score %.3f)\n",
			color.GreenString("%2d.", i+1), color.CyanString(hit.Chunk.DocPath), hit.Chunk.Seq, hit.Score)
		fmt.Printf("    %s\n", snippet(hit.Chunk.Text, 200))
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	kb, err := knowledge.Open(cfg)
	if err != nil {
		return fmt.Errorf("opening knowledge base: %w", err)
	}
	defer kb.Close()

	stats, err := kb.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	fmt.Printf("Documents: %d\n", stats.Documents)
	fmt.Printf("Chunks:    %d\n", stats.Chunks)
	return nil
}

func printSummary(summary *ingest.Summary) {
	fmt.Printf("%s  ingested %d, skipped %d, removed %d, chunks written %d (%s)\n",
		color.GreenString("done"), summary.Ingested, summary.Skipped, summary.Removed,
		summary.ChunksWritten, summary.Elapsed.Round(10*time.Millisecond))

	if summary.Failed > 0 {
		fmt.Printf("%s  %d document(s) failed:\n", color.RedString("warning"), summary.Failed)
		for _, failure := range summary.Failures {
			fmt.Printf("  %s: %v\n", failure.Path, failure.Err)
		}
	}
}

func snippet(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
