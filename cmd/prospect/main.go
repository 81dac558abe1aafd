// CLAUDE:SUMMARY CLI entry point for prospect — lead discovery runs, single-site scoring, channel recommendations, stats.
// Command prospect runs the lead discovery pipeline from the terminal.
//
// Usage:
//
//	prospect -config prospect.yaml -keywords "stretch wrap" -geos "New Jersey"
//	prospect -db prospect.db -score acme.com
//	prospect -db prospect.db -recommend -country US -state NJ
//	prospect -db prospect.db -stats
//	prospect -config prospect.yaml -mcp
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/prospect/leads"
)

func main() {
	configPath := flag.String("config", "", "path to prospect.yaml config file")
	dbPath := flag.String("db", "", "path to SQLite database")
	keywords := flag.String("keywords", "", "comma-separated product keywords")
	geos := flag.String("geos", "", "comma-separated geography tokens")
	intents := flag.String("intents", "", "comma-separated intent hints")
	exclude := flag.String("exclude", "", "comma-separated brand exclusions")
	scoreHost := flag.String("score", "", "score a single site and exit")
	mcpMode := flag.Bool("mcp", false, "serve the prospect tools over MCP stdio")
	recommend := flag.Bool("recommend", false, "recommend an outreach channel and exit")
	country := flag.String("country", "", "segment country for -recommend")
	state := flag.String("state", "", "segment state for -recommend")
	productTag := flag.String("product-tag", "", "segment product tag for -recommend")
	sizeBand := flag.String("size-band", "", "segment size band for -recommend")
	showStats := flag.Bool("stats", false, "show provider plan and recent runs, then exit")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := runOptions{
		configPath: *configPath,
		dbPath:     *dbPath,
		keywords:   splitList(*keywords),
		geos:       splitList(*geos),
		intents:    splitList(*intents),
		exclude:    splitList(*exclude),
		scoreHost:  *scoreHost,
		mcpMode:    *mcpMode,
		recommend:  *recommend,
		segment: leads.Segment{
			Country:    *country,
			State:      *state,
			ProductTag: *productTag,
			SizeBand:   *sizeBand,
		},
		showStats: *showStats,
	}
	if err := run(ctx, logger, opts); err != nil {
		logger.Error("prospect: fatal", "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	configPath string
	dbPath     string
	keywords   []string
	geos       []string
	intents    []string
	exclude    []string
	scoreHost  string
	mcpMode    bool
	recommend  bool
	segment    leads.Segment
	showStats  bool
}

func run(ctx context.Context, logger *slog.Logger, opts runOptions) error {
	cfg, err := resolveConfig(opts.configPath, opts.dbPath)
	if err != nil {
		return err
	}

	svc, err := leads.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer svc.Close()

	switch {
	case opts.mcpMode:
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "prospect",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		logger.Info("prospect: MCP stdio serving")
		return mcpSrv.Run(ctx, &mcp.StdioTransport{})

	case opts.scoreHost != "":
		scored, err := svc.ScoreSite(ctx, opts.scoreHost, opts.keywords...)
		if err != nil {
			return fmt.Errorf("score site: %w", err)
		}
		return emit(scored)

	case opts.recommend:
		choice, err := svc.RecommendChannel(ctx, opts.segment, nil)
		if err != nil {
			return fmt.Errorf("recommend: %w", err)
		}
		return emit(choice)

	case opts.showStats:
		stats, err := svc.ServiceStats(ctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		return emit(stats)

	default:
		if len(opts.keywords) == 0 {
			fmt.Fprintln(os.Stderr, "usage: prospect [-config <file> | -db <path>] -keywords <list> [-geos <list>] [-intents <list>]")
			fmt.Fprintln(os.Stderr, "       prospect -score <host> | -recommend | -stats")
			os.Exit(1)
		}
		report, err := svc.Discover(ctx, leads.LeadQuery{
			Keywords: opts.keywords,
			Geos:     opts.geos,
			Intents:  opts.intents,
			Exclude:  opts.exclude,
		})
		if err != nil {
			return fmt.Errorf("discover: %w", err)
		}
		return emit(report)
	}
}

func resolveConfig(configPath, dbPath string) (*leads.Config, error) {
	if configPath != "" {
		return leads.LoadConfig(configPath)
	}
	cfg := &leads.Config{}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

func emit(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
