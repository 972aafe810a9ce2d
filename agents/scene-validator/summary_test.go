package scenevalidator

import (
	"math"
	"reflect"
	"testing"

	"scene-validator/internal/models"
)

func TestMeanScore(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected float64
	}{
		{name: "No scores", scores: nil, expected: 0},
		{name: "Single score", scores: []float64{0.8}, expected: 0.8},
		{name: "Several scores", scores: []float64{1.0, 0.65, 1.0}, expected: 2.65 / 3},
		{name: "Failed comparisons count as zero", scores: []float64{1.0, 0, 1.0}, expected: 2.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := meanScore(tt.scores)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("Expected mean %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSceneQuality(t *testing.T) {
	analyses := map[string]models.CompositionJudgment{
		"first": {"composition_quality": "good", "overall_rating": 8.0},
		"last":  {"composition_quality": "fair", "overall_rating": 6.0},
	}

	summary := buildSummary([]float64{1.0, 0.65, 1.0}, analyses, nil)

	avg := 2.65 / 3
	expected := avg*0.6 + (14.0/20)*0.4
	if math.Abs(summary.SceneQuality-expected) > 1e-9 {
		t.Errorf("Expected scene quality %v, got %v", expected, summary.SceneQuality)
	}
	if math.Abs(summary.OverallContinuity-avg) > 1e-9 {
		t.Errorf("Expected overall continuity %v, got %v", avg, summary.OverallContinuity)
	}
}

func TestSceneQualityRatingFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		rating   any
		expected float64
	}{
		{name: "Float rating", rating: 7.0, expected: 7.0},
		{name: "Numeric string rating", rating: "7", expected: 7.0},
		{name: "Non-numeric string is zero", rating: "excellent", expected: 0},
		{name: "Unexpected type is zero", rating: []any{7}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judgment := models.CompositionJudgment{"overall_rating": tt.rating}
			if got := judgment.OverallRating(); got != tt.expected {
				t.Errorf("Expected rating %v, got %v", tt.expected, got)
			}
		})
	}

	t.Run("Missing rating is zero", func(t *testing.T) {
		judgment := models.CompositionJudgment{"composition_quality": "good"}
		if got := judgment.OverallRating(); got != 0 {
			t.Errorf("Expected rating 0, got %v", got)
		}
	})

	t.Run("Missing judgment contributes zero quality", func(t *testing.T) {
		summary := buildSummary([]float64{1.0}, map[string]models.CompositionJudgment{}, nil)
		if summary.SceneQuality != 0.6 {
			t.Errorf("Expected scene quality 0.6 from continuity alone, got %v", summary.SceneQuality)
		}
	})
}

func TestRecommendationsDefault(t *testing.T) {
	summary := buildSummary([]float64{1.0, 0.95}, map[string]models.CompositionJudgment{
		"first": {"composition_quality": "good"},
		"last":  {"composition_quality": "good"},
	}, nil)

	expected := []string{"Scene appears to have good continuity and composition"}
	if !reflect.DeepEqual(summary.Recommendations, expected) {
		t.Errorf("Expected single default recommendation, got %v", summary.Recommendations)
	}
}

func TestRecommendationsProblemFrames(t *testing.T) {
	tests := []struct {
		name          string
		problemFrames []int
		expected      string
	}{
		{
			name:          "Single problem frame",
			problemFrames: []int{2},
			expected:      "Review continuity in frames 2",
		},
		{
			name:          "Up to three frames are listed",
			problemFrames: []int{1, 3, 4},
			expected:      "Review continuity in frames 1, 3, 4",
		},
		{
			name:          "Overflow collapses into a suffix",
			problemFrames: []int{1, 2, 3, 4, 5},
			expected:      "Review continuity in frames 1, 2, 3 and 2 more",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := buildRecommendations(nil, tt.problemFrames)
			if len(recs) != 1 || recs[0] != tt.expected {
				t.Errorf("Expected [%q], got %v", tt.expected, recs)
			}
		})
	}
}

func TestRecommendationsRepeatedIssues(t *testing.T) {
	analyses := map[string]models.CompositionJudgment{
		"first": {
			"composition_quality": "fair",
			"composition_issues":  []any{"poor framing", "harsh lighting"},
		},
		"last": {
			"composition_quality": "fair",
			"composition_issues":  []any{"poor framing"},
		},
		"problem_2": {
			// No composition_quality key, so its issues are ignored.
			"composition_issues": []any{"harsh lighting"},
		},
	}

	recs := buildRecommendations(analyses, nil)

	expected := []string{"Fix poor framing composition issue"}
	if !reflect.DeepEqual(recs, expected) {
		t.Errorf("Expected %v, got %v", expected, recs)
	}
}

func TestRecommendationsIssueRepeatedWithinOneJudgment(t *testing.T) {
	analyses := map[string]models.CompositionJudgment{
		"first": {
			"composition_quality": "poor",
			"composition_issues":  []any{"poor framing", "poor framing"},
		},
		"last": {"composition_quality": "good"},
	}

	recs := buildRecommendations(analyses, nil)

	// Duplicates inside a single judgment do not count twice.
	expected := []string{"Scene appears to have good continuity and composition"}
	if !reflect.DeepEqual(recs, expected) {
		t.Errorf("Expected default recommendation, got %v", recs)
	}
}

func TestRecommendationsCombined(t *testing.T) {
	analyses := map[string]models.CompositionJudgment{
		"first": {
			"composition_quality": "fair",
			"composition_issues":  []any{"unbalanced composition"},
		},
		"last": {
			"composition_quality": "fair",
			"composition_issues":  []any{"unbalanced composition"},
		},
	}

	recs := buildRecommendations(analyses, []int{2, 3})

	expected := []string{
		"Review continuity in frames 2, 3",
		"Fix unbalanced composition composition issue",
	}
	if !reflect.DeepEqual(recs, expected) {
		t.Errorf("Expected %v, got %v", expected, recs)
	}
}
