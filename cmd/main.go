package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/okian/persona/internal/adapters/source"
	app "github.com/okian/persona/internal/app"
	"github.com/okian/persona/internal/config"
	"github.com/okian/persona/internal/domain/persona"
	"github.com/okian/persona/pkg/logger"
	"github.com/okian/persona/pkg/metrics"
	"github.com/okian/persona/pkg/tracing"
)

const (
	serviceName     = "persona"
	shutdownTimeout = 5 * time.Second
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, os.Stdout); err != nil {
		logger.Get().Error(ctx, "persona run failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run loads the table, runs the pipeline and writes the report to out.
func run(ctx context.Context, cfg *config.Config, out io.Writer) (err error) {
	log := logger.Named("cli")

	shutdown, err := tracing.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		log.Warn(ctx, "tracing disabled", logger.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := shutdown(sctx); serr != nil {
			log.Warn(ctx, "tracing shutdown failed", logger.Error(serr))
		}
	}()

	// Metrics are exported for failed runs too.
	if cfg.MetricsTextfile != "" {
		defer func() {
			if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
				err = errors.Join(err, werr)
			}
		}()
	}

	reader := source.NewCSVReader(source.WithComma(cfg.DelimiterRune()))
	txs, err := reader.ReadFile(ctx, cfg.InputPath)
	if err != nil {
		metrics.RecordStageError("load")
		metrics.RecordRun("failure")
		return fmt.Errorf("load %s: %w", cfg.InputPath, err)
	}
	log.Info(ctx, "transactions loaded", logger.String("path", cfg.InputPath), logger.Int("rows", len(txs)))

	svc := app.New(
		app.WithLogger(logger.Named("pipeline")),
		app.WithSegmentLabels(cfg.SegmentLabels...),
	)
	res, err := svc.Run(ctx, txs)
	if err != nil {
		return err
	}

	return writeReport(ctx, out, svc, res, cfg)
}

// writeReport prints the top personas, the tier summary and each lookup.
func writeReport(ctx context.Context, out io.Writer, svc *app.Service, res *app.Result, cfg *config.Config) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "run %s: %d transactions, %d groups, %d personas\n",
		res.RunID, res.Transactions, len(res.Groups), len(res.Segments))

	if cfg.TopN > 0 {
		top, err := svc.TopN(ctx, cfg.TopN)
		if err != nil {
			return fmt.Errorf("top personas: %w", err)
		}
		fmt.Fprintln(tw, "\nRANK\tPERSONA\tMEAN_PRICE\tSEGMENT")
		for _, e := range top {
			fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\n", e.Rank, e.PersonaKey, e.MeanPrice, e.Label)
		}
	}

	fmt.Fprintln(tw, "\nSEGMENT\tCOUNT\tMIN\tMAX\tMEAN")
	for _, s := range res.Summary {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n", s.Label, s.Count, s.MinPrice, s.MaxPrice, s.MeanPrice)
	}

	if len(cfg.LookupKeys) > 0 {
		fmt.Fprintln(tw, "\nLOOKUP\tMEAN_PRICE\tSEGMENT")
	}
	for _, raw := range cfg.LookupKeys {
		key := persona.Normalize(raw)
		seg, ok := svc.Lookup(ctx, key)
		if ok {
			fmt.Fprintf(tw, "%s\t%.2f\t%s\n", seg.PersonaKey, seg.MeanPrice, seg.Label)
			continue
		}
		line := key + "\tnot found\t"
		if hints := svc.Suggest(ctx, key, cfg.Suggestions); len(hints) > 0 {
			line += "did you mean: " + strings.Join(hints, ", ")
		}
		fmt.Fprintln(tw, line)
	}

	return tw.Flush()
}
