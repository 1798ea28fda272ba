package species

import (
	"math"
	"testing"
)

func TestAggregatePicksTopCandidate(t *testing.T) {
	preds := []Prediction{
		{ScientificName: "Ursus arctos", CommonName: "brown bear", Confidence: 0.7},
		{ScientificName: "Canis lupus", CommonName: "gray wolf", Confidence: 0.2},
	}

	res := Aggregate(preds, 0.5, 0.9, 5)

	if res.Best == nil || res.Best.ScientificName != "Ursus arctos" {
		t.Fatalf("best = %+v, want Ursus arctos", res.Best)
	}
	if res.CombinedConfidence == nil || math.Abs(*res.CombinedConfidence-0.8) > 1e-9 {
		t.Fatalf("combined = %v, want 0.8", res.CombinedConfidence)
	}
	if res.NeedsReview {
		t.Fatal("confident assignment should not need review")
	}
	// the below-threshold wolf is dropped from alternatives too
	if len(res.Alternatives) != 1 {
		t.Fatalf("alternatives = %d, want 1", len(res.Alternatives))
	}
}

func TestAggregateNothingClearsThreshold(t *testing.T) {
	preds := []Prediction{
		{ScientificName: "Ursus arctos", Confidence: 0.3},
		{ScientificName: "Canis lupus", Confidence: 0.1},
	}

	res := Aggregate(preds, 0.5, 0.9, 5)

	if res.Best != nil {
		t.Fatalf("no candidate clears 0.5, got best %+v", res.Best)
	}
	if !res.NeedsReview {
		t.Fatal("empty aggregation must flag review")
	}
	if res.CombinedConfidence != nil {
		t.Fatal("combined confidence should be absent without a winner")
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	res := Aggregate(nil, 0.5, 0.9, 5)
	if res.Best != nil || !res.NeedsReview {
		t.Fatalf("empty input should need review: %+v", res)
	}
}

func TestAggregateThresholdIsInclusive(t *testing.T) {
	preds := []Prediction{{ScientificName: "Panthera onca", Confidence: 0.5}}
	res := Aggregate(preds, 0.5, 0.6, 5)
	if res.Best == nil {
		t.Fatal("candidate exactly at threshold should be kept")
	}
}

func TestAggregateBoundsAlternativesToTopK(t *testing.T) {
	preds := []Prediction{
		{ScientificName: "a", Confidence: 0.9},
		{ScientificName: "b", Confidence: 0.8},
		{ScientificName: "c", Confidence: 0.7},
		{ScientificName: "d", Confidence: 0.6},
	}
	res := Aggregate(preds, 0.5, 0.9, 2)
	if len(res.Alternatives) != 2 {
		t.Fatalf("alternatives = %d, want 2", len(res.Alternatives))
	}
	if res.Alternatives[0].ScientificName != "a" {
		t.Fatalf("order must be preserved, got %+v", res.Alternatives)
	}
}
