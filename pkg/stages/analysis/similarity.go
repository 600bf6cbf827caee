package analysis

import (
	"context"

	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/warehouse"
)

// ComputeSimilarity finds every cross-brand ad pair within the lag window
// whose embeddings are close enough to suggest copying, and aggregates
// edges per ordered (source, copier) brand pair.
func ComputeSimilarity(
	ctx context.Context,
	ads []model.Ad,
	embeddings map[string]model.Embedding,
	lagDaysMax int,
	cosineThreshold float64,
	analytics warehouse.Analytics,
) ([]model.SimilarityEdge, []model.BrandPairAggregate, error) {
	var edges []model.SimilarityEdge

	for i := range ads {
		a := ads[i]
		embA, ok := embeddings[a.AdID]
		if !ok {
			continue
		}
		for j := range ads {
			if i == j {
				continue
			}
			b := ads[j]
			if a.Brand == b.Brand {
				continue
			}
			if b.StartTS.Before(a.StartTS) {
				continue // a must be the earlier (source) ad
			}
			lagDays := int(b.StartTS.Sub(a.StartTS).Hours() / 24)
			if lagDays > lagDaysMax {
				continue
			}
			embB, ok := embeddings[b.AdID]
			if !ok {
				continue
			}
			distance, err := analytics.CosineDistance(embA.Vector, embB.Vector)
			if err != nil {
				continue
			}
			if distance >= cosineThreshold {
				continue
			}
			edges = append(edges, model.SimilarityEdge{
				AdAID:          a.AdID,
				AdBID:          b.AdID,
				BrandA:         a.Brand,
				BrandB:         b.Brand,
				StartTSA:       a.StartTS,
				StartTSB:       b.StartTS,
				CosineDistance: distance,
				LagDays:        lagDays,
				Directional:    true,
			})
		}
	}

	return edges, aggregateBrandPairs(edges), nil
}

func aggregateBrandPairs(edges []model.SimilarityEdge) []model.BrandPairAggregate {
	type accum struct {
		max, sum float64
		count    int
	}
	byPair := make(map[[2]string]*accum)
	var order [][2]string

	for _, e := range edges {
		key := [2]string{e.BrandA, e.BrandB}
		a, ok := byPair[key]
		if !ok {
			a = &accum{}
			byPair[key] = a
			order = append(order, key)
		}
		similarity := e.Confidence()
		if similarity > a.max {
			a.max = similarity
		}
		a.sum += similarity
		a.count++
	}

	out := make([]model.BrandPairAggregate, 0, len(order))
	for _, key := range order {
		a := byPair[key]
		out = append(out, model.BrandPairAggregate{
			SourceBrand:    key[0],
			CopierBrand:    key[1],
			MaxSimilarity:  a.max,
			MeanSimilarity: a.sum / float64(a.count),
			EdgeCount:      a.count,
		})
	}
	return out
}
