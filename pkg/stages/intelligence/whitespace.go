package intelligence

import (
	"fmt"
	"sort"

	"github.com/adintel/compintel/pkg/model"
)

// whitespaceOpportunityFloor is the minimum opportunity score a non-
// COMPETITIVE cell must clear to earn a Signal.
const whitespaceOpportunityFloor = 0.3

// lowIntensityFloor is the mean promotional_intensity below which a cell
// counts as "low intensity" for the UNDERSERVED classification.
const lowIntensityFloor = 0.4

// whitespaceCellClass is the closed set of competitive-density
// classifications for one (angle, funnel, persona) cell.
type whitespaceCellClass string

const (
	cellVirginTerritory whitespaceCellClass = "VIRGIN_TERRITORY"
	cellMonopoly        whitespaceCellClass = "MONOPOLY"
	cellUnderserved     whitespaceCellClass = "UNDERSERVED"
	cellCompetitive     whitespaceCellClass = "COMPETITIVE"
)

type whitespaceCell struct {
	angle   model.Angle
	funnel  model.Funnel
	persona string
}

// Whitespace grids observed creative into (messaging_angle, funnel,
// persona) cells and emits a Signal per non-COMPETITIVE cell whose
// opportunity score clears the threshold.
func Whitespace(ads []model.Ad, labels map[string]model.StrategicLabel) []model.Signal {
	type accum struct {
		brandCounts map[string]int
		intensitySum float64
		total        int
	}
	byCell := make(map[whitespaceCell]*accum)
	var cellOrder []whitespaceCell

	for _, ad := range ads {
		label, ok := labels[ad.AdID]
		if !ok || label.Persona == "" {
			continue
		}
		for _, sa := range label.KeptAngles(0) {
			cell := whitespaceCell{angle: sa.Angle, funnel: label.Funnel, persona: label.Persona}
			a, ok := byCell[cell]
			if !ok {
				a = &accum{brandCounts: make(map[string]int)}
				byCell[cell] = a
				cellOrder = append(cellOrder, cell)
			}
			a.brandCounts[ad.Brand]++
			a.total++
			a.intensitySum += label.PromotionalIntensity
		}
	}

	sort.Slice(cellOrder, func(i, j int) bool {
		a, b := cellOrder[i], cellOrder[j]
		if a.angle != b.angle {
			return a.angle < b.angle
		}
		if a.funnel != b.funnel {
			return a.funnel < b.funnel
		}
		return a.persona < b.persona
	})

	var out []model.Signal
	for _, cell := range cellOrder {
		a := byCell[cell]
		competitorCount := len(a.brandCounts)
		concentration := herfindahl(a.brandCounts)
		meanIntensity := 0.0
		if a.total > 0 {
			meanIntensity = a.intensitySum / float64(a.total)
		}

		class := classifyCell(competitorCount, meanIntensity)
		if class == cellCompetitive {
			continue
		}

		opportunity := (1 - concentration) * (1 - float64(competitorCount)/10)
		if opportunity < whitespaceOpportunityFloor {
			continue
		}

		subject := fmt.Sprintf("%s:%s:%s", cell.angle, cell.funnel, cell.persona)
		out = append(out, model.Signal{
			ID:             fmt.Sprintf("whitespace:%s:%s", class, subject),
			Dimension:      model.DimensionWhitespace,
			Claim:          fmt.Sprintf("the %s / %s / %s cell is %s (%d competitors, opportunity score %.2f)", cell.angle, cell.funnel, cell.persona, class, competitorCount, opportunity),
			Confidence:     0.6,
			BusinessImpact: opportunity,
			Actionability:  0.8,
			SupportingRefs: []string{subject},
			SubjectKey:     fmt.Sprintf("cell:%s", subject),
		})
	}
	return out
}

func classifyCell(competitorCount int, meanIntensity float64) whitespaceCellClass {
	switch {
	case competitorCount == 0:
		return cellVirginTerritory
	case competitorCount == 1:
		return cellMonopoly
	case competitorCount <= 3 && meanIntensity < lowIntensityFloor:
		return cellUnderserved
	default:
		return cellCompetitive
	}
}
