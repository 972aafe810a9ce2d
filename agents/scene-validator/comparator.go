package scenevalidator

import (
	"errors"

	"scene-validator/internal/models"
)

// Weights of the continuity score components. They sum to 1.0 and must not
// be renormalized elsewhere.
const (
	missingObjectsWeight = 0.4
	newObjectsWeight     = 0.3
	colorWeight          = 0.3

	// maxObjectDelta normalizes object churn: 10 or more objects appearing
	// or disappearing between frames counts as total discontinuity.
	maxObjectDelta = 10

	// topColorCount limits how many dominant colors per side take part in
	// the color comparison.
	topColorCount = 3
)

// ErrIncomparable is returned when either input frame carries an extraction
// error marker. It is an expected, recoverable condition in batch runs and
// surfaces as a per-comparison error in the report.
var ErrIncomparable = errors.New("cannot compare frames due to analysis errors")

// CompareFrames checks two consecutive frames for continuity issues.
func CompareFrames(a, b models.FeatureResult) (*models.FrameComparison, error) {
	if a.Failed() || b.Failed() {
		return nil, ErrIncomparable
	}

	missing := objectDiff(a.Features.Objects, b.Features.Objects)
	added := objectDiff(b.Features.Objects, a.Features.Objects)
	colorDiff := colorDifference(a.Features.Colors, b.Features.Colors)

	return &models.FrameComparison{
		MissingObjects:  missing,
		NewObjects:      added,
		ColorDifference: colorDiff,
		ContinuityScore: continuityScore(len(missing), len(added), colorDiff),
	}, nil
}

// objectDiff returns the object names present in from but absent in against,
// in first-seen order. Objects are keyed by name; duplicate names collapse
// to a single entry.
func objectDiff(from, against []models.Object) []string {
	present := make(map[string]bool, len(against))
	for _, obj := range against {
		present[obj.Name] = true
	}

	seen := make(map[string]bool, len(from))
	diff := []string{}
	for _, obj := range from {
		if seen[obj.Name] {
			continue
		}
		seen[obj.Name] = true
		if !present[obj.Name] {
			diff = append(diff, obj.Name)
		}
	}
	return diff
}

// colorDifference compares the dominant colors of two frames on a 0-1 scale.
// It averages the normalized channel distance over all cross pairs of each
// side's top colors, weighted by the product of their prominence scores.
// This is deliberately not a best-match metric; the all-pairs mean must be
// preserved for output compatibility.
func colorDifference(colors1, colors2 []models.Color) float64 {
	if len(colors1) == 0 || len(colors2) == 0 {
		return 1.0
	}

	top1 := colors1[:min(topColorCount, len(colors1))]
	top2 := colors2[:min(topColorCount, len(colors2))]

	var total float64
	count := 0
	for _, c1 := range top1 {
		for _, c2 := range top2 {
			channelDiff := absInt(c1.RGB[0]-c2.RGB[0]) +
				absInt(c1.RGB[1]-c2.RGB[1]) +
				absInt(c1.RGB[2]-c2.RGB[2])
			total += float64(channelDiff) / (3 * 255) * c1.Score * c2.Score
			count++
		}
	}

	return total / float64(max(1, count))
}

// continuityScore combines object churn and color drift into a single score
// where 1 is perfect continuity and 0 is a completely different scene.
func continuityScore(missingCount, newCount int, colorDiff float64) float64 {
	normalizedMissing := min(1.0, float64(missingCount)/maxObjectDelta)
	normalizedNew := min(1.0, float64(newCount)/maxObjectDelta)

	score := 1.0 - (missingObjectsWeight*normalizedMissing +
		newObjectsWeight*normalizedNew +
		colorWeight*colorDiff)

	return max(0.0, min(1.0, score))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
