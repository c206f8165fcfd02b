// Command zeropow-miner runs a CPU worker pool against an
// Equihash-192,7 ("ZERO_PoW") getwork endpoint, or benchmarks the
// solver in isolation. It replaces the teacher's flag-based, OpenCL
// device-enumerating main() (main.go) with a github.com/spf13/cobra
// command tree, since the domain here is CPU worker fan-out rather
// than GPU device selection.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/onyxlabs/zeropow/algorithms/zeropow"
	"github.com/onyxlabs/zeropow/harness"
)

var log = logrus.New()

func main() {
	root := &cobra.Command{
		Use:   "zeropow-miner",
		Short: "CPU worker pool for the ZERO_PoW generalized-birthday proof of work",
	}
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.AddCommand(newSolveCmd(), newBenchCmd())

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("zeropow-miner exited with an error")
	}
}

func applyLogLevel(cmd *cobra.Command) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		log.WithError(err).Warn("unrecognized log level, defaulting to info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

func newSolveCmd() *cobra.Command {
	var (
		getworkURL string
		submitURL  string
		workers    int
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Fetch work over HTTP and mine it with a CPU worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyLogLevel(cmd)
			entry := logrus.NewEntry(log)

			source := harness.NewHTTPJobSource(getworkURL, submitURL, entry)
			pool, err := harness.NewPool(zeropow.Params{}, workers, source, entry)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go reportHashRate(ctx, pool, workers, entry)
			go reportSolutions(ctx, pool, entry)

			entry.WithFields(logrus.Fields{
				"workers": workers,
				"getwork": getworkURL,
				"submit":  submitURL,
			}).Info("starting zeropow miner")
			return pool.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&getworkURL, "getwork-url", "http://localhost:9980/miner/headerforwork", "URL to poll for work")
	cmd.Flags().StringVar(&submitURL, "submit-url", "http://localhost:9980/miner/submitheader", "URL to post solutions to")
	cmd.Flags().IntVar(&workers, "workers", 1, "number of solver worker goroutines")
	return cmd
}

func newBenchCmd() *cobra.Command {
	var (
		workers  int
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the solver against a fixed header, printing aggregate hash rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyLogLevel(cmd)
			entry := logrus.NewEntry(log)

			source := harness.NewStaticJobSource([]byte("zeropow-bench-header"))
			pool, err := harness.NewPool(zeropow.Params{}, workers, source, entry)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), duration)
			defer cancel()

			go reportHashRate(ctx, pool, workers, entry)

			entry.WithFields(logrus.Fields{"workers": workers, "duration": duration}).Info("starting benchmark")
			err = pool.Run(ctx)
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 1, "number of solver worker goroutines")
	cmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "how long to run the benchmark")
	return cmd
}

// reportHashRate aggregates every worker's most recent HashRateReport
// and logs a combined rate periodically, generalizing the teacher's
// main.go hash-rate accumulation loop from per-device totals to
// per-goroutine totals.
func reportHashRate(ctx context.Context, pool *harness.Pool, workers int, log *logrus.Entry) {
	rates := make([]float64, workers)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case report := <-pool.Reports:
			if report.WorkerID >= 0 && report.WorkerID < len(rates) {
				rates[report.WorkerID] = report.HashRate
			}
		case <-ticker.C:
			var total float64
			for _, r := range rates {
				total += r
			}
			log.Infof("hash rate: %s H/s", humanize.SIWithDigits(total, 2, ""))
		}
	}
}

func reportSolutions(ctx context.Context, pool *harness.Pool, log *logrus.Entry) {
	for {
		select {
		case <-ctx.Done():
			return
		case sol := <-pool.Solutions:
			log.WithFields(logrus.Fields{
				"job":      sol.JobID,
				"solution": len(sol.Solution),
			}).Info("found solution")
		}
	}
}
