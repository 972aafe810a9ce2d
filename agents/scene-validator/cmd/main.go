package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	scenevalidator "scene-validator/agents/scene-validator"
	"scene-validator/shared/config"
	"scene-validator/shared/logging"
	"scene-validator/shared/scheduler"
)

type cliOptions struct {
	frames       []string
	output       string
	geminiAPIKey string
	visionAPIKey string
	projectID    string
	logLevel     string
	schedule     bool
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	applyOverrides(cfg, opts)

	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if opts.schedule {
		agent := scenevalidator.NewSceneAgent(cfg, logger)
		s := scheduler.New(cfg, agent, logger)

		fmt.Println("Starting scheduler...")
		if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Scheduler failed: %v", err)
		}
		return
	}

	if len(opts.frames) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no frames provided")
		fmt.Fprintln(os.Stderr, "")
		printUsage()
		os.Exit(1)
	}

	validator := scenevalidator.BuildValidator(ctx, cfg, logger)
	report, err := validator.Validate(ctx, opts.frames)
	if err != nil {
		// Failures are reported in the output rather than as a process error,
		// so pipelines can inspect them like any other result.
		emit(map[string]string{"error": err.Error()}, opts.output)
		return
	}

	emit(report, opts.output)
}

func emit(result any, outputPath string) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode results: %v", err)
	}

	fmt.Println(string(data))

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			log.Fatalf("Failed to write results to %s: %v", outputPath, err)
		}
		fmt.Printf("Results saved to %s\n", outputPath)
	}
}

func parseArgs(args []string) (*cliOptions, error) {
	opts := &cliOptions{}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--frames":
			for i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				i++
				opts.frames = append(opts.frames, args[i])
			}
			if len(opts.frames) == 0 {
				return nil, fmt.Errorf("--frames requires at least one path")
			}
		case "--output":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--output requires a path")
			}
			opts.output = args[i]
		case "--api-key":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--api-key requires a value")
			}
			opts.geminiAPIKey = args[i]
		case "--vision-api-key":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--vision-api-key requires a value")
			}
			opts.visionAPIKey = args[i]
		case "--project-id":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--project-id requires a value")
			}
			opts.projectID = args[i]
		case "--config":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--config requires a path")
			}
			os.Setenv("CONFIG_FILE", args[i])
		case "--log-level":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("--log-level requires a value")
			}
			opts.logLevel = args[i]
		case "--schedule":
			opts.schedule = true
		case "--help", "-h":
			printUsage()
			os.Exit(0)
		default:
			return nil, fmt.Errorf("unknown argument: %s", args[i])
		}
	}

	return opts, nil
}

// applyOverrides lets command line flags win over the config file and
// environment.
func applyOverrides(cfg *config.Config, opts *cliOptions) {
	if opts.geminiAPIKey != "" {
		cfg.AI.GeminiAPIKey = opts.geminiAPIKey
	}
	if opts.visionAPIKey != "" {
		cfg.Vision.APIKey = opts.visionAPIKey
	}
	if opts.projectID != "" {
		cfg.Vision.ProjectID = opts.projectID
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.schedule && len(opts.frames) == 1 {
		if info, err := os.Stat(opts.frames[0]); err == nil && info.IsDir() {
			cfg.Validator.FramesDir = opts.frames[0]
		}
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage:
  scenevalidator --frames frame1.jpg frame2.jpg ... [options]
  scenevalidator --schedule [--frames frames-dir]

Options:
  --frames PATH...        Frame images in sequence order (or a directory with --schedule)
  --output PATH           Write the JSON report to PATH as well as stdout
  --api-key KEY           Gemini API key (overrides GEMINI_API_KEY)
  --vision-api-key KEY    Cloud Vision API key (overrides GOOGLE_VISION_API_KEY)
  --project-id ID         Google Cloud project ID
  --config PATH           Config file path (default config.yaml)
  --log-level LEVEL       debug, info, warn, or error
  --schedule              Run continuously on the configured cron schedule`)
}
