// Command seisxcorr computes ambient-noise cross-correlation functions
// from per-timestamp seismic containers.
//
// Usage:
//
//	seisxcorr [flags] -job job.yaml
//
// The job file names every parameter of the run; see the config package.
// Each timestamp is processed independently, one input and one output
// container per timestamp.
//
// Examples:
//
//	seisxcorr -job job.yaml
//	seisxcorr -job job.yaml -workers 8
//	seisxcorr -job job.yaml -order c3
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-seis/config"
	"github.com/cwbudde/algo-seis/store"
	"github.com/cwbudde/algo-seis/xcorr"
	"github.com/cwbudde/algo-seis/xcorr/highorder"
)

func main() {
	jobPath := flag.String("job", "", "path to the YAML job description (required)")
	order := flag.String("order", "c2", "correlation order to compute: c2 or c3")
	workers := flag.Int("workers", runtime.NumCPU(), "number of timestamps processed concurrently")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: seisxcorr [flags] -job job.yaml\n\n")
		fmt.Fprintf(os.Stderr, "Computes cross-correlation functions per timestamp container.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *jobPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(*jobPath, *order, *workers, log); err != nil {
		log.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(jobPath, order string, workers int, log *slog.Logger) error {
	job, err := config.Load(jobPath)
	if err != nil {
		return err
	}
	if workers < 1 {
		workers = 1
	}

	switch order {
	case "c2":
		return runFirstOrder(job, workers, log)
	case "c3":
		return runHighOrder(job, workers, log)
	default:
		return fmt.Errorf("unknown correlation order %q", order)
	}
}

func runFirstOrder(job *config.Job, workers int, log *slog.Logger) error {
	cfg, err := job.DriverConfig()
	if err != nil {
		return err
	}
	driver, err := xcorr.New(cfg, log)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, tstamp := range job.Timestamps {
		g.Go(func() error {
			in, err := store.OpenReadOnly(filepath.Join(job.InputDir, tstamp))
			if err != nil {
				return fmt.Errorf("open input for %s: %w", tstamp, err)
			}
			defer in.Close()

			out, err := store.Open(filepath.Join(job.OutputDir, tstamp))
			if err != nil {
				return fmt.Errorf("open output for %s: %w", tstamp, err)
			}
			defer out.Close()

			errs, err := driver.Run(tstamp, job.Stations, in, out)
			if err != nil {
				return fmt.Errorf("correlate %s: %w", tstamp, err)
			}
			if errs.Len() > 0 {
				log.Warn("rejected inputs", "tstamp", tstamp, "count", errs.Len())
			}
			return nil
		})
	}
	return g.Wait()
}

func runHighOrder(job *config.Job, workers int, log *slog.Logger) error {
	cfg, err := job.HighOrderConfig()
	if err != nil {
		return err
	}
	driver, err := highorder.New(cfg, log)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, tstamp := range job.Timestamps {
		g.Go(func() error {
			in, err := store.OpenReadOnly(filepath.Join(job.InputDir, tstamp))
			if err != nil {
				return fmt.Errorf("open input for %s: %w", tstamp, err)
			}
			defer in.Close()

			pairs, err := in.Keys(tstamp)
			if err != nil {
				return fmt.Errorf("list pairs for %s: %w", tstamp, err)
			}

			out, err := store.Open(filepath.Join(job.OutputDir, tstamp))
			if err != nil {
				return fmt.Errorf("open output for %s: %w", tstamp, err)
			}
			defer out.Close()

			errs, err := driver.Run(tstamp, pairs, in, out)
			if err != nil {
				return fmt.Errorf("correlate %s: %w", tstamp, err)
			}
			if errs.Len() > 0 {
				log.Warn("rejected inputs", "tstamp", tstamp, "count", errs.Len())
			}
			return nil
		})
	}
	return g.Wait()
}
