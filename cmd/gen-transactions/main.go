package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/persona/internal/synth"
	"github.com/okian/persona/pkg/logger"
)

// Default configuration constants.
const (
	defaultRows = 10000
	filePerm    = 0o644
)

func main() {
	var (
		rows   = flag.Int("rows", defaultRows, "Number of transactions to generate")
		seed   = flag.Int64("seed", time.Now().UnixNano(), "Random seed (same seed, same table)")
		output = flag.String("output", "", "Output CSV file (default: stdout)")
		withID = flag.Bool("id", false, "Prepend a customer ID column")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("gen-transactions")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := os.Stdout
	if *output != "" {
		f, err := os.OpenFile(*output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
		if err != nil {
			log.Fatal(ctx, "failed to create output file", logger.String("output", *output), logger.Error(err))
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	w := bufio.NewWriter(out)
	g := synth.New(*seed, synth.WithIDColumn(*withID))
	if err := g.WriteCSV(ctx, w, *rows); err != nil {
		log.Fatal(ctx, "failed to generate transactions", logger.Error(err))
	}
	if err := w.Flush(); err != nil {
		log.Fatal(ctx, "failed to flush output", logger.Error(err))
	}
	log.Info(ctx, "transactions generated", logger.Int("rows", *rows), logger.Any("seed", *seed))
}
