package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/resourceauction/receipt"
	"github.com/cloudx-io/resourceauction/report"
	"github.com/cloudx-io/resourceauction/simulation"
)

var runCmd = &cli.Command{
	Name:    "run",
	Usage:   "Run randomized auction trials and report aggregate statistics",
	Aliases: []string{"r"},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "specify a YAML simulation config",
		},
		&cli.IntFlag{
			Name:  "resources",
			Usage: "number of resources per trial",
		},
		&cli.IntFlag{
			Name:  "bidders",
			Usage: "number of bidders per trial",
		},
		&cli.Float64Flag{
			Name:  "min-bid",
			Usage: "lowest generated bid",
		},
		&cli.Float64Flag{
			Name:  "max-bid",
			Usage: "highest generated bid (exclusive)",
		},
		&cli.IntFlag{
			Name:  "trials",
			Usage: "number of trials",
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "seed for bid generation",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "auction resources in parallel on this many workers",
		},
		&cli.Float64Flag{
			Name:  "reserve",
			Usage: "reserve price applied to every resource",
		},
		&cli.IntFlag{
			Name:  "show",
			Value: 1,
			Usage: "print detailed results for the first N trials",
		},
		&cli.StringFlag{
			Name:  "svg-dir",
			Usage: "write per-trial charts, the bid histogram and the trend chart to this directory",
		},
		&cli.StringFlag{
			Name:  "receipt-dir",
			Usage: "write signed receipts and the verification key to this directory",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "text",
			Usage: "summary output format: text or json",
		},
	},
	Action: func(ctx *cli.Context) error {
		format := ctx.String("format")
		if err := checkFormat(format); err != nil {
			return err
		}

		cfg, err := loadRunConfig(ctx, os.Getenv)
		if err != nil {
			return err
		}

		return doRun(ctx.Context, cfg, ctx.Int("show"), ctx.String("svg-dir"), ctx.String("receipt-dir"), format)
	},
}

// loadRunConfig resolves the simulation config: defaults, then the YAML file, then AUCTION_*
// environment variables, then flags given on the command line.
func loadRunConfig(ctx *cli.Context, getenv func(string) string) (simulation.Config, error) {
	cfg, err := simulation.LoadConfig(ctx.String("config"))
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return cfg, err
	}
	applyFlags(ctx, &cfg)
	return cfg, nil
}

// applyFlags overrides config values with flags given on the command line.
func applyFlags(ctx *cli.Context, cfg *simulation.Config) {
	if ctx.IsSet("resources") {
		cfg.Resources = ctx.Int("resources")
	}
	if ctx.IsSet("bidders") {
		cfg.Bidders = ctx.Int("bidders")
	}
	if ctx.IsSet("min-bid") {
		cfg.MinBid = ctx.Float64("min-bid")
	}
	if ctx.IsSet("max-bid") {
		cfg.MaxBid = ctx.Float64("max-bid")
	}
	if ctx.IsSet("trials") {
		cfg.Trials = ctx.Int("trials")
	}
	if ctx.IsSet("seed") {
		cfg.Seed = ctx.Uint64("seed")
	}
	if ctx.IsSet("workers") {
		cfg.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("reserve") {
		cfg.ReservePrice = ctx.Float64("reserve")
	}
}

func doRun(ctx context.Context, cfg simulation.Config, show int, svgDir, receiptDir, format string) error {
	stats := &report.Stats{}
	sinks := []report.Sink{stats}

	if show > 0 && format == "text" {
		text := &report.Text{W: os.Stdout, ShowBids: true}
		sinks = append(sinks, report.SinkFunc(func(ctx context.Context, trial *report.Trial) error {
			if trial.Index >= show {
				return nil
			}
			return text.Report(ctx, trial)
		}))
	}

	if svgDir != "" {
		if err := os.MkdirAll(svgDir, 0o755); err != nil {
			return fmt.Errorf("failed to create chart directory: %w", err)
		}
		sinks = append(sinks, &report.SVG{Dir: svgDir})
	}

	if receiptDir != "" {
		sink, err := newReceiptSink(receiptDir)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink)
	}

	runner, err := simulation.NewRunner(cfg, sinks...)
	if err != nil {
		return err
	}

	if _, err := runner.RunConfig(ctx, cfg); err != nil {
		return err
	}

	summary := stats.Summary()

	if svgDir != "" {
		if err := writeChart(filepath.Join(svgDir, "histogram.svg"), summary, report.WriteHistogram); err != nil {
			return err
		}
		if err := writeChart(filepath.Join(svgDir, "trend.svg"), summary, report.WriteTrend); err != nil {
			return err
		}
	}

	if format == "json" {
		return outputJSON(summary)
	}
	fmt.Println()
	return report.WriteSummary(os.Stdout, summary)
}

func newReceiptSink(dir string) (*receipt.Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create receipt directory: %w", err)
	}

	signer, err := receipt.NewSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize receipt signer: %w", err)
	}

	publicKey, err := signer.PublicKeyPEM()
	if err != nil {
		return nil, err
	}
	keyPath := filepath.Join(dir, "receipt-key.pem")
	if err := os.WriteFile(keyPath, []byte(publicKey), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write public key: %w", err)
	}
	log.Printf("INFO: Receipt verification key written to %s", keyPath)

	return &receipt.Sink{Signer: signer, Dir: dir}, nil
}

func writeChart(path string, summary report.Summary, draw func(io.Writer, report.Summary)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	draw(f, summary)
	return f.Close()
}
