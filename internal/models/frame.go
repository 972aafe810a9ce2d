package models

// Point is a normalized vertex of an object bounding polygon, with
// coordinates in the [0,1] range.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Object is a localized object detected in a frame.
type Object struct {
	Name        string  `json:"name"`
	Confidence  float64 `json:"confidence"`
	BoundingBox []Point `json:"bounding_box"`
}

// Label is a whole-frame classification label.
type Label struct {
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Color is one dominant color of a frame. The extractor returns colors
// pre-sorted by prominence; downstream code relies on that order.
type Color struct {
	RGB           [3]int  `json:"rgb"`
	Score         float64 `json:"score"`
	PixelFraction float64 `json:"pixel_fraction"`
}

// FrameFeatures is the structured feature set extracted from a single frame.
// It is immutable after creation.
type FrameFeatures struct {
	Objects []Object `json:"objects"`
	Labels  []Label  `json:"labels"`
	Colors  []Color  `json:"colors"`
}

// FeatureResult is the outcome of extracting features from one frame.
// Exactly one of Features or Err is set. Extraction failures are data, not
// control flow: the sequence keeps processing around a failed frame.
type FeatureResult struct {
	Features *FrameFeatures `json:"features,omitempty"`
	Err      string         `json:"error,omitempty"`
}

// Failed reports whether this result carries an error marker.
func (r FeatureResult) Failed() bool {
	return r.Err != ""
}
