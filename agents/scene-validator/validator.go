package scenevalidator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"scene-validator/internal/models"
)

const (
	// continuityThreshold marks a comparison as a continuity problem.
	continuityThreshold = 0.7

	// maxProblemJudgments bounds external-service cost: only the first few
	// problem frames get a composition critique. The problem frame list
	// itself is uncapped.
	maxProblemJudgments = 3

	// maxExtractWorkers bounds concurrent feature extraction calls.
	maxExtractWorkers = 4
)

// ErrInsufficientFrames is the only hard validation failure: a sequence
// needs at least two frames to compare.
var ErrInsufficientFrames = errors.New("need at least 2 frames to validate a sequence")

// Extractor produces structured features for a single frame image. Ordinary
// recoverable failures (network errors, decode failures) come back as an
// error marker inside the result, never as a panic.
type Extractor interface {
	ExtractFeatures(ctx context.Context, framePath string) models.FeatureResult
}

// Critic returns a qualitative composition judgment for a single frame
// image. Failures come back as an error-marker judgment.
type Critic interface {
	JudgeComposition(ctx context.Context, framePath string) models.CompositionJudgment
}

// SequenceValidator orchestrates extraction, pairwise comparison, selective
// critique and aggregation. It keeps no state across calls; Validate is a
// pure function of its inputs and the injected collaborators.
type SequenceValidator struct {
	extractor Extractor
	critic    Critic
	logger    *slog.Logger
}

func NewSequenceValidator(extractor Extractor, critic Critic, logger *slog.Logger) *SequenceValidator {
	return &SequenceValidator{
		extractor: extractor,
		critic:    critic,
		logger:    logger,
	}
}

// Validate scores a frame sequence for continuity and composition. Per-frame
// and per-pair failures are embedded in the report so one bad frame never
// aborts the batch.
func (v *SequenceValidator) Validate(ctx context.Context, framePaths []string) (*models.ValidationReport, error) {
	if len(framePaths) < 2 {
		return nil, ErrInsufficientFrames
	}

	v.logger.Info("validating frame sequence", "frames", len(framePaths))

	featureResults := v.extractAll(ctx, framePaths)

	comparisons := make([]models.ComparisonResult, 0, len(featureResults)-1)
	for i := 0; i < len(featureResults)-1; i++ {
		comp, err := CompareFrames(featureResults[i], featureResults[i+1])
		if err != nil {
			v.logger.Warn("comparison skipped", "pair", i+1, "error", err)
			comparisons = append(comparisons, models.ComparisonResult{Err: err.Error()})
			continue
		}
		v.logger.Debug("frames compared", "pair", i+1, "continuity_score", comp.ContinuityScore)
		comparisons = append(comparisons, models.ComparisonResult{Comparison: comp})
	}

	// The first and last frame are always critiqued.
	analyses := map[string]models.CompositionJudgment{
		"first": v.critic.JudgeComposition(ctx, framePaths[0]),
		"last":  v.critic.JudgeComposition(ctx, framePaths[len(framePaths)-1]),
	}

	problemFrames := []int{}
	judged := 0
	for i, result := range comparisons {
		if result.Failed() || result.Comparison.ContinuityScore >= continuityThreshold {
			continue
		}
		// 1-based position of the comparison, i.e. of its second frame.
		position := i + 1
		problemFrames = append(problemFrames, position)
		if judged < maxProblemJudgments {
			analyses[fmt.Sprintf("problem_%d", position)] = v.critic.JudgeComposition(ctx, framePaths[i+1])
			judged++
		}
	}

	scores := make([]float64, len(comparisons))
	for i, result := range comparisons {
		scores[i] = result.Score()
	}

	report := &models.ValidationReport{
		FrameCount:          len(framePaths),
		ContinuityScores:    scores,
		AverageContinuity:   meanScore(scores),
		ProblemFrames:       problemFrames,
		CompositionAnalyses: analyses,
		Summary:             buildSummary(scores, analyses, problemFrames),
	}

	v.logger.Info("validation complete",
		"frames", report.FrameCount,
		"average_continuity", report.AverageContinuity,
		"problem_frames", len(report.ProblemFrames))

	return report, nil
}

// extractAll runs feature extraction over a bounded worker pool. Extractions
// are side-effect-free and mutually independent; results land at their frame
// index so downstream consumers see them in sequence order.
func (v *SequenceValidator) extractAll(ctx context.Context, framePaths []string) []models.FeatureResult {
	type workItem struct {
		index int
		path  string
	}

	results := make([]models.FeatureResult, len(framePaths))
	work := make(chan workItem, len(framePaths))

	var wg sync.WaitGroup
	for w := 0; w < min(maxExtractWorkers, len(framePaths)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				results[item.index] = v.extractor.ExtractFeatures(ctx, item.path)
			}
		}()
	}

	for i, path := range framePaths {
		work <- workItem{index: i, path: path}
	}
	close(work)
	wg.Wait()

	return results
}
