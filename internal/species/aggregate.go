// Package species turns ranked classifier output into the single species
// assignment stored with a detection.
package species

// Taxonomy is the classifier's taxonomic lineage for a label.
type Taxonomy struct {
	Kingdom string `json:"kingdom,omitempty"`
	Phylum  string `json:"phylum,omitempty"`
	Class   string `json:"class,omitempty"`
	Order   string `json:"order,omitempty"`
	Family  string `json:"family,omitempty"`
	Genus   string `json:"genus,omitempty"`
}

// Prediction is one ranked classifier candidate.
type Prediction struct {
	ScientificName string    `json:"scientific_name"`
	CommonName     string    `json:"common_name,omitempty"`
	Confidence     float64   `json:"confidence"`
	Taxonomy       *Taxonomy `json:"taxonomy,omitempty"`
}

// Result is the aggregated species assignment for one detection.
// Best is nil when no candidate cleared the threshold; the detection is
// then kept category-only and flagged for review.
type Result struct {
	Best               *Prediction
	Alternatives       []Prediction
	CombinedConfidence *float64
	NeedsReview        bool
}

// Aggregate filters candidates below threshold, keeps at most topK, and
// blends the winner's confidence with the detector's score. Candidates are
// assumed already ranked by the classifier.
func Aggregate(preds []Prediction, threshold, detectorConfidence float64, topK int) Result {
	kept := make([]Prediction, 0, len(preds))
	for _, p := range preds {
		if p.Confidence >= threshold {
			kept = append(kept, p)
		}
		if topK > 0 && len(kept) == topK {
			break
		}
	}

	if len(kept) == 0 {
		return Result{NeedsReview: true}
	}

	best := kept[0]
	combined := (detectorConfidence + best.Confidence) / 2

	return Result{
		Best:               &best,
		Alternatives:       kept,
		CombinedConfidence: &combined,
	}
}
