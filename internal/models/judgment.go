package models

import "strconv"

// CompositionJudgment is the critic's verdict for a single frame. The
// structure is opaque free-form JSON from the model; only a few keys are
// recognized here. Malformed responses are preserved under "raw_analysis"
// and failures under "error".
type CompositionJudgment map[string]any

// ErrorJudgment wraps a failure description as a judgment so the report can
// carry it instead of aborting the run.
func ErrorJudgment(msg string) CompositionJudgment {
	return CompositionJudgment{"error": msg}
}

// RawJudgment preserves a model response that did not contain well-formed
// structured data.
func RawJudgment(text string) CompositionJudgment {
	return CompositionJudgment{"raw_analysis": text}
}

// Failed reports whether the judgment carries an error marker.
func (j CompositionJudgment) Failed() bool {
	_, ok := j["error"]
	return ok
}

// OverallRating returns the numeric "overall_rating" value, expected on a
// 1-10 scale. A missing or unparseable rating is 0, not an error.
func (j CompositionJudgment) OverallRating() float64 {
	v, ok := j["overall_rating"]
	if !ok {
		return 0
	}
	switch r := v.(type) {
	case float64:
		return r
	case int:
		return float64(r)
	case string:
		f, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// HasCompositionQuality reports whether the critic returned a
// "composition_quality" assessment; only such judgments take part in
// cross-frame issue tallying.
func (j CompositionJudgment) HasCompositionQuality() bool {
	_, ok := j["composition_quality"]
	return ok
}

// Issues returns the "composition_issues" labels, if any.
func (j CompositionJudgment) Issues() []string {
	v, ok := j["composition_issues"]
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		issues := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				issues = append(issues, s)
			}
		}
		return issues
	default:
		return nil
	}
}
