package scenevalidator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"scene-validator/internal/models"
)

// Scene quality blends continuity with the critic's ratings of the first and
// last frames. Ratings are on a 1-10 scale, so the pair sum divides by 20.
const (
	continuityQualityWeight  = 0.6
	compositionQualityWeight = 0.4
)

// maxRecommendedFrames caps how many problem frames one recommendation names
// before collapsing the rest into an "and N more" suffix.
const maxRecommendedFrames = 3

// repeatedIssueThreshold is the number of distinct judgments an issue must
// appear in before it earns a recommendation.
const repeatedIssueThreshold = 2

func buildSummary(scores []float64, analyses map[string]models.CompositionJudgment, problemFrames []int) models.ValidationSummary {
	avgContinuity := meanScore(scores)

	firstRating := analyses["first"].OverallRating()
	lastRating := analyses["last"].OverallRating()

	sceneQuality := avgContinuity*continuityQualityWeight +
		(firstRating+lastRating)/20*compositionQualityWeight

	return models.ValidationSummary{
		OverallContinuity: avgContinuity,
		SceneQuality:      sceneQuality,
		IssueCount:        len(problemFrames),
		Recommendations:   buildRecommendations(analyses, problemFrames),
	}
}

func meanScore(scores []float64) float64 {
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(max(1, len(scores)))
}

func buildRecommendations(analyses map[string]models.CompositionJudgment, problemFrames []int) []string {
	recommendations := []string{}

	if len(problemFrames) > 0 {
		shown := problemFrames[:min(maxRecommendedFrames, len(problemFrames))]
		parts := make([]string, 0, len(shown))
		for _, frame := range shown {
			parts = append(parts, strconv.Itoa(frame))
		}
		framesStr := strings.Join(parts, ", ")
		if extra := len(problemFrames) - maxRecommendedFrames; extra > 0 {
			framesStr += fmt.Sprintf(" and %d more", extra)
		}
		recommendations = append(recommendations, fmt.Sprintf("Review continuity in frames %s", framesStr))
	}

	for _, issue := range repeatedIssues(analyses) {
		recommendations = append(recommendations, fmt.Sprintf("Fix %s composition issue", issue))
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Scene appears to have good continuity and composition")
	}

	return recommendations
}

// repeatedIssues tallies composition issues across judgments that include a
// composition_quality assessment and returns the ones flagged by at least
// two distinct judgments. Judgment keys are walked in sorted order so the
// result is deterministic.
func repeatedIssues(analyses map[string]models.CompositionJudgment) []string {
	keys := make([]string, 0, len(analyses))
	for key := range analyses {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	counts := make(map[string]int)
	var firstSeen []string
	for _, key := range keys {
		judgment := analyses[key]
		if !judgment.HasCompositionQuality() {
			continue
		}
		seen := make(map[string]bool)
		for _, issue := range judgment.Issues() {
			if seen[issue] {
				continue
			}
			seen[issue] = true
			if counts[issue] == 0 {
				firstSeen = append(firstSeen, issue)
			}
			counts[issue]++
		}
	}

	var repeated []string
	for _, issue := range firstSeen {
		if counts[issue] >= repeatedIssueThreshold {
			repeated = append(repeated, issue)
		}
	}
	return repeated
}
