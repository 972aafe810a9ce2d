package models

// FrameComparison is the result of comparing two consecutive frames. It is
// derived purely from two FrameFeatures values and is freely recomputable.
type FrameComparison struct {
	// MissingObjects lists object names present in the earlier frame but
	// absent in the later one, in first-seen order.
	MissingObjects []string `json:"missing_objects"`
	// NewObjects is the inverse set, in first-seen order from the later frame.
	NewObjects []string `json:"new_objects"`
	// ColorDifference is 0 for identical dominant colors, 1 for maximally
	// different (or when either frame has no color data).
	ColorDifference float64 `json:"color_difference"`
	// ContinuityScore is 1 for perfect continuity, 0 for total discontinuity.
	ContinuityScore float64 `json:"continuity_score"`
}

// ComparisonResult is the outcome of one pairwise comparison. A comparison
// against a frame whose extraction failed yields an error marker instead of
// aborting the sequence.
type ComparisonResult struct {
	Comparison *FrameComparison `json:"comparison,omitempty"`
	Err        string           `json:"error,omitempty"`
}

// Failed reports whether this result carries an error marker.
func (r ComparisonResult) Failed() bool {
	return r.Err != ""
}

// Score returns the continuity score, or 0 for a failed comparison.
func (r ComparisonResult) Score() float64 {
	if r.Comparison == nil {
		return 0
	}
	return r.Comparison.ContinuityScore
}
