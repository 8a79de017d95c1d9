package services

import (
	"context"
	"strings"

	"github.com/givecycle/marketplace/internal/model"
)

// HeuristicScorer is the default ConfidenceScorer. It is a coarse prior over
// category and declared value, tuned from past review outcomes. The score is
// stored with the donation for the reviewer's benefit and decides nothing.
type HeuristicScorer struct {
	categoryPriors map[string]float64
}

func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{
		categoryPriors: map[string]float64{
			"clothing":    0.85,
			"books":       0.90,
			"furniture":   0.70,
			"electronics": 0.55,
			"food":        0.40,
		},
	}
}

func (h *HeuristicScorer) Score(ctx context.Context, d *model.Donation) (float64, error) {
	score := 0.5
	if prior, ok := h.categoryPriors[strings.ToLower(d.Category)]; ok {
		score = prior
	}

	// implausibly high declared values get flagged down for closer review
	if d.Value > 1000 {
		score *= 0.6
	}
	if d.Value == 0 {
		score *= 0.8
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, nil
}
