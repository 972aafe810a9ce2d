package models

// ValidationSummary is the derived rollup at the end of a report.
type ValidationSummary struct {
	OverallContinuity float64  `json:"overall_continuity"`
	SceneQuality      float64  `json:"scene_quality"`
	IssueCount        int      `json:"issue_count"`
	Recommendations   []string `json:"recommendations"`
}

// ValidationReport is the sole output artifact of validating a frame
// sequence. Built once, then immutable.
//
// Invariants: len(ContinuityScores) == FrameCount-1, and ProblemFrames holds
// 1-based comparison positions, so every element is in [1, FrameCount-1].
type ValidationReport struct {
	FrameCount          int                            `json:"frame_count"`
	ContinuityScores    []float64                      `json:"continuity_scores"`
	AverageContinuity   float64                        `json:"average_continuity"`
	ProblemFrames       []int                          `json:"problem_frames"`
	CompositionAnalyses map[string]CompositionJudgment `json:"composition_analyses"`
	Summary             ValidationSummary              `json:"validation_summary"`
}
