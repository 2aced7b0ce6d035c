package vision

// Scores holds the per-dimension quality ratings produced by the vision
// model. All values are clamped to [1.0, 5.0] with one decimal place.
type Scores struct {
	Composition float64  `json:"composition"`
	Color       float64  `json:"color"`
	Lighting    float64  `json:"lighting"`
	Sharpness   float64  `json:"sharpness"`
	Overall     float64  `json:"overall"`
	Reason      string   `json:"reason,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Analysis is the structured result of analyzing one photo.
type Analysis struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Mood        string   `json:"mood,omitempty"`
	Subjects    string   `json:"subjects,omitempty"`
	Scores      Scores   `json:"scores"`
}
