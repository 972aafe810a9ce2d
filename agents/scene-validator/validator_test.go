package scenevalidator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"reflect"
	"sort"
	"sync"
	"testing"

	"scene-validator/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubExtractor serves canned feature results keyed by frame path.
type stubExtractor struct {
	results map[string]models.FeatureResult
}

func (s stubExtractor) ExtractFeatures(ctx context.Context, framePath string) models.FeatureResult {
	if result, ok := s.results[framePath]; ok {
		return result
	}
	return models.FeatureResult{Err: "no stubbed features for " + framePath}
}

// recordingCritic counts judgment requests and serves canned judgments.
type recordingCritic struct {
	mu        sync.Mutex
	calls     []string
	judgments map[string]models.CompositionJudgment
}

func (c *recordingCritic) JudgeComposition(ctx context.Context, framePath string) models.CompositionJudgment {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, framePath)
	if judgment, ok := c.judgments[framePath]; ok {
		return judgment
	}
	return models.CompositionJudgment{"composition_quality": "good", "overall_rating": 7.0}
}

func (c *recordingCritic) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func newTestValidator(extractor Extractor, critic Critic) *SequenceValidator {
	return NewSequenceValidator(extractor, critic, testLogger())
}

func TestValidateInsufficientFrames(t *testing.T) {
	validator := newTestValidator(stubExtractor{}, &recordingCritic{})

	for _, frames := range [][]string{nil, {"only.jpg"}} {
		if _, err := validator.Validate(context.Background(), frames); err != ErrInsufficientFrames {
			t.Errorf("Expected ErrInsufficientFrames for %d frames, got %v", len(frames), err)
		}
	}
}

func TestValidateTwoFrames(t *testing.T) {
	colors := []models.Color{{RGB: [3]int{20, 40, 60}, Score: 1.0}}
	extractor := stubExtractor{results: map[string]models.FeatureResult{
		"f1.jpg": features(namedObjects("person"), colors),
		"f2.jpg": features(namedObjects("person"), colors),
	}}
	critic := &recordingCritic{}

	report, err := newTestValidator(extractor, critic).Validate(context.Background(), []string{"f1.jpg", "f2.jpg"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.FrameCount != 2 {
		t.Errorf("Expected frame count 2, got %d", report.FrameCount)
	}
	if len(report.ContinuityScores) != 1 {
		t.Fatalf("Expected exactly 1 comparison, got %d", len(report.ContinuityScores))
	}
	if report.ContinuityScores[0] != 1.0 {
		t.Errorf("Expected perfect continuity, got %v", report.ContinuityScores[0])
	}

	for _, key := range []string{"first", "last"} {
		if _, ok := report.CompositionAnalyses[key]; !ok {
			t.Errorf("Expected judgment key %q to be present", key)
		}
	}
	if critic.callCount() != 2 {
		t.Errorf("Expected 2 judgment requests, got %d", critic.callCount())
	}
}

func TestValidateEndToEnd(t *testing.T) {
	black := []models.Color{{RGB: [3]int{0, 0, 0}, Score: 1.0}}
	white := []models.Color{{RGB: [3]int{255, 255, 255}, Score: 0.5}}

	crowded := namedObjects("person", "tree", "bench", "lamp", "dog")
	extractor := stubExtractor{results: map[string]models.FeatureResult{
		"f1.jpg": features(crowded, black),
		"f2.jpg": features(crowded, black),
		// Five objects vanish and the palette flips: color difference is
		// (765/765)*1.0*0.5 = 0.5, score 1-(0.4*0.5+0.3*0.5) = 0.65.
		"f3.jpg": features(nil, white),
		"f4.jpg": features(nil, white),
	}}
	critic := &recordingCritic{judgments: map[string]models.CompositionJudgment{
		"f1.jpg": {"composition_quality": "good", "overall_rating": 8.0},
		"f4.jpg": {"composition_quality": "good", "overall_rating": 6.0},
	}}

	frames := []string{"f1.jpg", "f2.jpg", "f3.jpg", "f4.jpg"}
	report, err := newTestValidator(extractor, critic).Validate(context.Background(), frames)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expectedScores := []float64{1.0, 0.65, 1.0}
	if len(report.ContinuityScores) != len(expectedScores) {
		t.Fatalf("Expected %d scores, got %d", len(expectedScores), len(report.ContinuityScores))
	}
	for i, expected := range expectedScores {
		if math.Abs(report.ContinuityScores[i]-expected) > 1e-9 {
			t.Errorf("Score %d: expected %v, got %v", i, expected, report.ContinuityScores[i])
		}
	}

	expectedAvg := 2.65 / 3
	if math.Abs(report.AverageContinuity-expectedAvg) > 1e-9 {
		t.Errorf("Expected average continuity %v, got %v", expectedAvg, report.AverageContinuity)
	}

	if !reflect.DeepEqual(report.ProblemFrames, []int{2}) {
		t.Errorf("Expected problem frames [2], got %v", report.ProblemFrames)
	}

	if _, ok := report.CompositionAnalyses["problem_2"]; !ok {
		t.Errorf("Expected judgment key problem_2, have %v", judgmentKeys(report))
	}

	// first, last and one problem frame.
	if critic.callCount() != 3 {
		t.Errorf("Expected 3 judgment requests, got %d", critic.callCount())
	}

	expectedQuality := expectedAvg*0.6 + (14.0/20)*0.4
	if math.Abs(report.Summary.SceneQuality-expectedQuality) > 1e-9 {
		t.Errorf("Expected scene quality %v, got %v", expectedQuality, report.Summary.SceneQuality)
	}
	if report.Summary.IssueCount != 1 {
		t.Errorf("Expected issue count 1, got %d", report.Summary.IssueCount)
	}
}

func TestValidateProblemJudgmentCap(t *testing.T) {
	colors := []models.Color{{RGB: [3]int{50, 50, 50}, Score: 1.0}}

	// Six frames with pairwise-disjoint sets of ten objects: every
	// comparison scores 1-(0.4+0.3) = 0.3 and is a problem.
	results := make(map[string]models.FeatureResult, 6)
	frames := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		names := make([]string, 10)
		for j := range names {
			names[j] = fmt.Sprintf("object_%d_%d", i, j)
		}
		path := fmt.Sprintf("f%d.jpg", i+1)
		frames = append(frames, path)
		results[path] = features(namedObjects(names...), colors)
	}

	critic := &recordingCritic{}
	report, err := newTestValidator(stubExtractor{results: results}, critic).Validate(context.Background(), frames)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Every qualifying comparison is recorded, uncapped.
	if !reflect.DeepEqual(report.ProblemFrames, []int{1, 2, 3, 4, 5}) {
		t.Errorf("Expected all five problem frames, got %v", report.ProblemFrames)
	}

	// Only the first three problem frames get a judgment.
	for _, key := range []string{"problem_1", "problem_2", "problem_3"} {
		if _, ok := report.CompositionAnalyses[key]; !ok {
			t.Errorf("Expected judgment key %q, have %v", key, judgmentKeys(report))
		}
	}
	for _, key := range []string{"problem_4", "problem_5"} {
		if _, ok := report.CompositionAnalyses[key]; ok {
			t.Errorf("Judgment key %q should be beyond the cap", key)
		}
	}
	if critic.callCount() != 5 {
		t.Errorf("Expected 5 judgment requests (first, last, 3 problems), got %d", critic.callCount())
	}

	expected := "Review continuity in frames 1, 2, 3 and 2 more"
	if len(report.Summary.Recommendations) == 0 || report.Summary.Recommendations[0] != expected {
		t.Errorf("Expected recommendation %q, got %v", expected, report.Summary.Recommendations)
	}
}

func TestValidateFailedExtraction(t *testing.T) {
	colors := []models.Color{{RGB: [3]int{10, 20, 30}, Score: 1.0}}
	extractor := stubExtractor{results: map[string]models.FeatureResult{
		"f1.jpg": features(namedObjects("person"), colors),
		"f2.jpg": {Err: "vision API returned status 500"},
		"f3.jpg": features(namedObjects("person"), colors),
		"f4.jpg": features(namedObjects("person"), colors),
	}}

	frames := []string{"f1.jpg", "f2.jpg", "f3.jpg", "f4.jpg"}
	report, err := newTestValidator(extractor, &recordingCritic{}).Validate(context.Background(), frames)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Both comparisons touching the failed frame contribute zero scores.
	expectedScores := []float64{0, 0, 1.0}
	if !reflect.DeepEqual(report.ContinuityScores, expectedScores) {
		t.Errorf("Expected scores %v, got %v", expectedScores, report.ContinuityScores)
	}

	// Failed comparisons never mark problem frames.
	if len(report.ProblemFrames) != 0 {
		t.Errorf("Expected no problem frames, got %v", report.ProblemFrames)
	}

	expectedAvg := 1.0 / 3
	if math.Abs(report.AverageContinuity-expectedAvg) > 1e-9 {
		t.Errorf("Expected average continuity %v, got %v", expectedAvg, report.AverageContinuity)
	}
}

func judgmentKeys(report *models.ValidationReport) []string {
	keys := make([]string, 0, len(report.CompositionAnalyses))
	for key := range report.CompositionAnalyses {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
