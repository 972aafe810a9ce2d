package scenevalidator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"scene-validator/shared/ai"
	"scene-validator/shared/config"
	"scene-validator/shared/scheduler"
	"scene-validator/shared/storage"
	"scene-validator/shared/vision"
)

// ValidationMetrics represents the metrics collected during a validation run
type ValidationMetrics struct {
	FramesValidated   int     `json:"frames_validated"`
	AverageContinuity float64 `json:"average_continuity"`
	ProblemFrames     int     `json:"problem_frames"`
	ReportWritten     bool    `json:"report_written"`
}

// GetSummary implements the scheduler.Metrics interface
func (m ValidationMetrics) GetSummary() string {
	if m.ProblemFrames > 0 {
		return fmt.Sprintf("validated %d frames, average continuity %.2f, %d continuity breaks found",
			m.FramesValidated, m.AverageContinuity, m.ProblemFrames)
	}
	return fmt.Sprintf("validated %d frames, average continuity %.2f, no continuity breaks",
		m.FramesValidated, m.AverageContinuity)
}

// SceneAgent implements the scheduler.Agent interface
type SceneAgent struct {
	config    *config.Config
	validator *SequenceValidator
	logger    *slog.Logger
}

func NewSceneAgent(cfg *config.Config, logger *slog.Logger) *SceneAgent {
	return &SceneAgent{
		config: cfg,
		logger: logger,
	}
}

func (a *SceneAgent) Name() string {
	return "Scene Validator"
}

func (a *SceneAgent) Initialize() error {
	a.logger.Info("initializing agent", "agent", a.Name())

	if a.config.Validator.FramesDir == "" {
		return fmt.Errorf("frames directory must be configured (validator.frames_dir or --frames)")
	}

	if a.validator == nil {
		a.validator = BuildValidator(context.Background(), a.config, a.logger)
	}

	a.logger.Info("configured", "frames_dir", a.config.Validator.FramesDir,
		"output_dir", a.config.Validator.OutputDir)
	return nil
}

func (a *SceneAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := ValidationMetrics{}

	frames, err := listFrames(a.config.Validator.FramesDir)
	if err != nil {
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(fmt.Errorf("failed to list frames: %w", err), time.Since(startTime))
		}
		return fmt.Errorf("failed to list frames: %w", err)
	}

	a.logger.Info("found frames", "dir", a.config.Validator.FramesDir, "count", len(frames))

	report, err := a.validator.Validate(ctx, frames)
	if err != nil {
		if events != nil && events.OnCriticalFailure != nil {
			events.OnCriticalFailure(fmt.Errorf("validation failed: %w", err), time.Since(startTime))
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	metrics.FramesValidated = report.FrameCount
	metrics.AverageContinuity = report.AverageContinuity
	metrics.ProblemFrames = len(report.ProblemFrames)

	if a.config.Validator.OutputDir != "" {
		path, err := writeReport(a.config.Validator.OutputDir, report)
		if err != nil {
			// A completed validation with no saved report is still useful
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("failed to write report: %w", err), time.Since(startTime))
			}
			a.logger.Warn("failed to write report", "error", err)
		} else {
			metrics.ReportWritten = true
			a.logger.Info("report written", "path", path)
		}
	}

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, time.Since(startTime))
	}

	a.logger.Info("validation complete", "frames", metrics.FramesValidated,
		"average_continuity", metrics.AverageContinuity, "problem_frames", metrics.ProblemFrames)
	return nil
}

// BuildValidator wires the feature extractor, optional feature cache, and
// composition critic into a SequenceValidator. Client construction failures
// degrade to stand-ins that report the failure per frame instead of aborting.
func BuildValidator(ctx context.Context, cfg *config.Config, logger *slog.Logger) *SequenceValidator {
	var extractor Extractor
	ext, err := vision.NewExtractor(ctx, cfg, logger)
	if err != nil {
		logger.Warn("vision client unavailable", "error", err)
		extractor = vision.Unavailable{Reason: "Vision API client not initialized"}
	} else {
		extractor = ext
	}

	if cfg.Validator.CacheDir != "" {
		cache, err := storage.NewFeatureCache(cfg.Validator.CacheDir, cfg.CacheMaxAge())
		if err != nil {
			logger.Warn("feature cache unavailable", "error", err)
		} else {
			extractor = &storage.CachingExtractor{Inner: extractor, Cache: cache, Logger: logger}
		}
	}

	var critic Critic
	cr, err := ai.NewCritic(ctx, cfg, logger)
	if err != nil {
		logger.Warn("gemini client unavailable", "error", err)
		critic = ai.Unavailable{Reason: "Gemini API not initialized"}
	} else {
		critic = cr
	}

	return NewSequenceValidator(extractor, critic, logger)
}

// listFrames returns the image files in dir sorted by name, which is the
// sequence order for numbered frame exports.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var frames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp":
			frames = append(frames, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}

func writeReport(dir string, report any) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("validation_%s.json", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
