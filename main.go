package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/joho/godotenv"
	"github.com/openmedrec/rxnorm-annotator/annotator"
	"github.com/openmedrec/rxnorm-annotator/config"
	"github.com/openmedrec/rxnorm-annotator/data"
	"github.com/openmedrec/rxnorm-annotator/health"
	"github.com/openmedrec/rxnorm-annotator/interfaces"
	"github.com/openmedrec/rxnorm-annotator/logging"
	"github.com/openmedrec/rxnorm-annotator/scheduler"
	"github.com/openmedrec/rxnorm-annotator/server"
	"github.com/openmedrec/rxnorm-annotator/supplements"
	"github.com/openmedrec/rxnorm-annotator/terminology"
	"github.com/openmedrec/rxnorm-annotator/validation"
)

func main() {
	// .env is optional, real environments set variables directly
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Configuration error:", err)
		os.Exit(1)
	}

	logging.Init(logging.Options{
		Dir:            "logs",
		Level:          logging.ParseLevel(cfg.LogLevel),
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	})

	inputPath := flag.String("annotate", "", "CSV file of treatment names to annotate in batch mode")
	outputPath := flag.String("out", "annotated.csv", "output file for batch mode results")
	flag.Parse()

	dataContainer := data.NewContainer()
	dataContainer.SetServerStartTime(time.Now())

	parser := terminology.NewTerminologyParser(cfg.DataDir)

	var supplementSource interfaces.SupplementSource
	if cfg.HasCerboCredentials() {
		client, err := supplements.NewClient(cfg.CerboBaseURL, cfg.CerboUsername, cfg.CerboPassword, cfg.CerboAPIKey)
		if err != nil {
			logging.Error("Invalid supplement registry configuration", "error", err)
			os.Exit(1)
		}
		supplementSource = client
	} else {
		logging.Info("No supplement registry credentials, running with the primary catalog only")
	}

	updater := scheduler.NewScheduler(dataContainer, parser, supplementSource, scheduler.Options{
		IndexFile:       cfg.IndexFile,
		FuzzyThreshold:  cfg.FuzzyThreshold,
		RxNormFuzzyGate: cfg.RxNormFuzzyGate,
		SupplementGate:  cfg.FuzzyThreshold,
	})

	if *inputPath != "" {
		runBatch(updater, dataContainer, cfg, *inputPath, *outputPath)
		return
	}

	if err := updater.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer updater.Stop()

	checker := health.NewHealthChecker(dataContainer)
	validator := validation.NewInputValidator()
	srv := server.NewServer(cfg, dataContainer, checker, validator)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
		os.Exit(1)
	}
}

// runBatch builds the index once and annotates a CSV file, no HTTP server.
func runBatch(updater interfaces.Scheduler, dataContainer *data.Container,
	cfg *config.Config, inputPath, outputPath string) {
	if err := updater.Start(); err != nil {
		logging.Error("Failed to build the index", "error", err)
		os.Exit(1)
	}
	defer updater.Stop()

	engine := dataContainer.GetEngine()
	if engine == nil {
		logging.Error("No matching engine available after the build")
		os.Exit(1)
	}

	batch := annotator.New(engine, cfg.AnnotateWorkers)
	stats, err := batch.AnnotateFile(inputPath, outputPath)
	if err != nil {
		logging.Error("Batch annotation failed", "input", inputPath, "error", err)
		os.Exit(1)
	}

	logging.Info("Batch annotation complete",
		"input", inputPath,
		"output", outputPath,
		"rows", stats.Rows,
		"unique", stats.Unique,
		"exact", stats.Exact,
		"fuzzy", stats.Fuzzy,
		"no_match", stats.NoMatch)
	fmt.Printf("Annotated %d rows (%d unique): %d exact, %d fuzzy, %d unmatched -> %s\n",
		stats.Rows, stats.Unique, stats.Exact, stats.Fuzzy, stats.NoMatch, outputPath)
}
