package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/config"
	"github.com/emirozbir/monitor-agent/internal/formatter"
	"github.com/emirozbir/monitor-agent/internal/service"
	"github.com/emirozbir/monitor-agent/internal/ui"
)

func main() {
	input := flag.String("input", "", "Path to the input cases file (default from config)")
	output := flag.String("output", "", "Path to the results file (default from config)")
	configPath := flag.String("config", "", "Path to config file")
	outputFormat := flag.String("format", "pretty", "Output format: 'pretty' or 'json'")
	noColor := flag.Bool("no-color", false, "Disable colored output")

	flag.Parse()

	if *outputFormat != "pretty" && *outputFormat != "json" {
		log.Fatalf("Invalid -format %q: use 'pretty' or 'json'", *outputFormat)
	}

	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if *input == "" {
		*input = cfg.Batch.InputPath
	}
	if *output == "" {
		*output = cfg.Batch.OutputPath
	}

	var progress ui.ProgressReporter
	if *outputFormat == "pretty" {
		sp := ui.NewSpinnerProgress(os.Stderr)
		sp.Start("Loading cases from " + *input)
		progress = sp
	}

	// Logs would interleave with the spinner and the report.
	orch, err := service.NewFromConfig(cfg, nil, progress, zap.NewNop())
	if err != nil {
		if progress != nil {
			progress.Stop()
		}
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	results, stats, err := orch.RunBatch(ctx, *input, *output, progress)
	if err != nil {
		if progress != nil {
			progress.Stop()
		}
		logger.Fatal("Batch failed", zap.Error(err))
	}

	// Output result
	if *outputFormat == "json" {
		out, err := json.MarshalIndent(map[string]any{
			"inputFile":  *input,
			"outputFile": *output,
			"stats":      stats,
			"results":    results,
		}, "", "  ")
		if err != nil {
			logger.Fatal("Failed to marshal results", zap.Error(err))
		}
		fmt.Println(string(out))
		return
	}

	snapshot := orch.Snapshot()
	outputFormatter := formatter.NewFormatter(!*noColor)
	fmt.Println(outputFormatter.FormatReport(formatter.Report{
		Results:    results,
		Stats:      stats,
		OutputPath: *output,
		Elapsed:    time.Since(started),
		Snapshot:   &snapshot,
	}))
}
