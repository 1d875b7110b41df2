package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/wadjakorntonsri/funnel-gateway/pkg/app"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/config"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/core/domain"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/logger"
	"github.com/wadjakorntonsri/funnel-gateway/pkg/ports"
	"go.uber.org/zap"
)

const usage = "expected 'export', 'create' or 'stats' subcommands"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cfg := config.Load()
	log, err := logger.New(logger.Options{Level: getLevel(cfg), Service: "funnel-cli"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log, os.Args[1:], os.Stdout); err != nil {
		log.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

// The CLI keeps the log quiet unless asked otherwise; its output is the data.
func getLevel(cfg *config.Config) string {
	if os.Getenv("LOG_LEVEL") == "" {
		return "warn"
	}
	return cfg.LogLevel
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, args []string, out io.Writer) error {
	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	createCmd := flag.NewFlagSet("create", flag.ContinueOnError)
	createTarget := createCmd.String("target", "", "target URL for the new link")
	statsCmd := flag.NewFlagSet("stats", flag.ContinueOnError)

	var fs *flag.FlagSet
	switch args[0] {
	case "export":
		fs = exportCmd
	case "create":
		fs = createCmd
	case "stats":
		fs = statsCmd
	default:
		return fmt.Errorf("unknown command %q: %s", args[0], usage)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if fs == createCmd && *createTarget == "" {
		createCmd.PrintDefaults()
		return fmt.Errorf("-target is required")
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	switch fs {
	case exportCmd:
		return doExport(ctx, a.Store, out)
	case createCmd:
		return doCreate(ctx, a.Gateway, *createTarget, out)
	default:
		return doStats(ctx, a.Store, out)
	}
}

func doExport(ctx context.Context, store ports.LinkStore, out io.Writer) error {
	links, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if links == nil {
		links = []domain.Link{}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(links)
}

func doCreate(ctx context.Context, gateway ports.GatewayService, target string, out io.Writer) error {
	link, err := gateway.CreateLink(ctx, target)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	_, err = fmt.Fprintln(out, link.ShortURL)
	return err
}

func doStats(ctx context.Context, store ports.LinkStore, out io.Writer) error {
	links, err := store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tCLICKS\tCOMPLETED\tSTATE\tTARGET")
	for i := range links {
		l := &links[i]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", l.Slug, l.Clicks, l.Completed, l.State(), l.Target)
	}
	t := domain.SumTotals(links)
	fmt.Fprintf(tw, "TOTAL (%d)\t%d\t%d\t\t\n", t.Links, t.Clicks, t.Completed)
	return tw.Flush()
}
