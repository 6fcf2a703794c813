package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/lectio/internal"
	"github.com/starford/lectio/internal/courseservice"
	"github.com/starford/lectio/internal/llm"
	"github.com/starford/lectio/internal/mcpserver"
	"github.com/starford/lectio/internal/storage"
	"github.com/starford/lectio/internal/summarize"
	"github.com/starford/lectio/internal/tracker"
	pkgconfig "github.com/starford/lectio/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if key := os.Getenv("LECTIO_LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if model := os.Getenv("LECTIO_LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if lib := cmd.String("library"); lib != "" {
		cfg.Library.Path = lib
	}
	return cfg, nil
}

// textLogger builds the stderr logger used by the one-shot commands. The
// serve mode sets up its own JSON logger instead.
func textLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runSummarize(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: lectio summarize <reading.pdf>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := textLogger(cfg)

	gen := llm.New(cfg.LLM.Options(), logger)
	tr := tracker.New(cfg.Master.GlobalPath, logger)

	svc := summarize.New(gen, tr, summarize.Options{
		HistoryLimit:  cfg.History.Limit,
		EnableHistory: cfg.History.Enabled,
		UpdateMasters: cfg.Master.Enabled,
	}, logger)

	res, err := svc.Run(ctx, summarize.Request{
		PDFPath:        cmd.Args().First(),
		OutputPath:     cmd.String("output"),
		CourseOverride: cmd.String("course"),
		WeekOverride:   cmd.String("week"),
		NoHistory:      cmd.Bool("no-history"),
	})
	if err != nil {
		if res != nil {
			// The summary was saved but the index update failed.
			fmt.Println(res.OutputPath)
		}
		return err
	}

	fmt.Println(res.OutputPath)
	return nil
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("usage: lectio history <COURSE_CODE>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := textLogger(cfg)

	svc, err := newCourseService(cfg, logger)
	if err != nil {
		return err
	}

	code := cmd.Args().First()
	records, err := svc.CourseHistory(ctx, code)
	if err != nil {
		return fmt.Errorf("course not found: %s", code)
	}
	if len(records) == 0 {
		fmt.Printf("no summaries recorded for %s yet\n", code)
		return nil
	}

	fmt.Printf("%s - %d prior reading(s)\n\n", code, len(records))
	for _, rec := range records {
		week := "?"
		if rec.Week > 0 {
			week = fmt.Sprintf("%d", rec.Week)
		}
		fmt.Printf("Week %s: %s by %s\n", week, rec.Title, rec.Author)
		fmt.Printf("  Thesis: %s\n", rec.Thesis)
		if len(rec.KeyConcepts) > 0 {
			fmt.Printf("  Concepts: %s\n", strings.Join(rec.KeyConcepts, ", "))
		}
		fmt.Println()
	}
	return nil
}

func runReindex(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := textLogger(cfg)

	tr := tracker.New(cfg.Master.GlobalPath, logger)
	if err := tr.Rebuild(cfg.Library.Path); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}

	fmt.Printf("index rebuilt: %s\n", tr.GlobalPath())
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := textLogger(cfg)

	svc, err := newCourseService(cfg, logger)
	if err != nil {
		return err
	}
	return mcpserver.New(svc).ServeStdio()
}

func newCourseService(cfg *internal.Config, logger *slog.Logger) (*courseservice.Service, error) {
	store, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	tr := tracker.New(cfg.Master.GlobalPath, logger)
	return courseservice.NewService(store, tr.GlobalPath(), cfg.History.Limit, logger), nil
}

func main() {
	commonFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "config/config.yaml",
			Value:       "config/config.yaml",
			Sources:     cli.EnvVars("LECTIO_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "library",
			Aliases: []string{"l"},
			Usage:   "Course library root directory",
			Sources: cli.EnvVars("LECTIO_LIBRARY"),
		},
	}

	cmd := &cli.Command{
		Name:  "lectio",
		Usage: "Academic PDF summarizer with cumulative course history and master indexes",
		Commands: []*cli.Command{
			{
				Name:      "summarize",
				Usage:     "Summarize a PDF reading with cumulative course context",
				ArgsUsage: "<reading.pdf>",
				Action:    runSummarize,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path for the summary (default: next to the PDF)",
					},
					&cli.StringFlag{
						Name:  "course",
						Usage: "Course code override (e.g. PSYCH101)",
					},
					&cli.StringFlag{
						Name:  "week",
						Usage: "Week number override",
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Skip prior-week context injection",
					},
				}, commonFlags...),
			},
			{
				Name:      "history",
				Usage:     "Show the recorded learning history of a course",
				ArgsUsage: "<COURSE_CODE>",
				Action:    runHistory,
				Flags:     commonFlags,
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild both master index tiers from the summaries on disk",
				Action: runReindex,
				Flags:  commonFlags,
			},
			{
				Name:   "serve",
				Usage:  "Serve the REST API, SSE events, and keep the indexes live",
				Action: runServe,
				Flags:  commonFlags,
			},
			{
				Name:   "mcp",
				Usage:  "Serve Lectio tools over the Model Context Protocol on stdio",
				Action: runMCP,
				Flags:  commonFlags,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
