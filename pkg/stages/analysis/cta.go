package analysis

import (
	"regexp"
	"strconv"

	"github.com/adintel/compintel/pkg/model"
)

// ctaSignalPatterns is the regex-table idiom used throughout this pipeline
// for lightweight text classification: each compiled pattern contributes a
// fixed point weight toward the aggressiveness score when it matches.
var ctaSignalPatterns = []struct {
	pattern *regexp.Regexp
	weight  float64
}{
	{regexp.MustCompile(`(?i)\b(now|today|hurry|last chance|ends soon)\b`), 1.5}, // urgency
	{regexp.MustCompile(`(?i)\b(buy|shop|order|subscribe|sign up|join)\b`), 1.0}, // promotional
	{regexp.MustCompile(`(?i)\b(only \d+ left|while supplies last|limited time|selling out)\b`), 2.0}, // scarcity
}

var discountPattern = regexp.MustCompile(`(\d{1,2})\s*%\s*off`)

const maxAggressivenessScore = 10.0

// ScoreCTAAggressiveness computes a [0,10] regex-derived aggressiveness
// score for one ad's creative text, extracting any detected discount
// percentage and bucketing the result.
func ScoreCTAAggressiveness(ad model.Ad) model.CTAAggressiveness {
	var score float64
	for _, sig := range ctaSignalPatterns {
		if sig.pattern.MatchString(ad.CreativeText) {
			score += sig.weight
		}
	}

	discountPct := extractDiscountPct(ad.CreativeText)
	if discountPct > 0 {
		score += float64(discountPct) / 20.0 // up to +4.5 for a 90% discount
	}
	if score > maxAggressivenessScore {
		score = maxAggressivenessScore
	}

	return model.CTAAggressiveness{
		AdID:        ad.AdID,
		Brand:       ad.Brand,
		Score:       score,
		Bucket:      ctaBucketFor(score),
		DiscountPct: discountPct,
	}
}

// extractDiscountPct returns the largest single discount percentage in
// [5,90] mentioned in text, or 0 if none found.
func extractDiscountPct(text string) int {
	matches := discountPattern.FindAllStringSubmatch(text, -1)
	best := 0
	for _, m := range matches {
		v, err := strconv.Atoi(m[1])
		if err != nil || v < 5 || v > 90 {
			continue
		}
		if v > best {
			best = v
		}
	}
	return best
}

func ctaBucketFor(score float64) model.CTABucket {
	switch {
	case score >= 6:
		return model.CTAHighlyAggressive
	case score >= 2.5:
		return model.CTAModeratelyAggressive
	default:
		return model.CTABrandFocused
	}
}

// AggregateCTAByBrand summarizes per-ad aggressiveness scores into one
// mean-score/bucket-distribution entry per brand.
func AggregateCTAByBrand(scores []model.CTAAggressiveness) []model.CTABrandAggregate {
	type accum struct {
		sum     float64
		count   int
		buckets map[model.CTABucket]int
	}
	byBrand := make(map[string]*accum)
	var order []string

	for _, s := range scores {
		a, ok := byBrand[s.Brand]
		if !ok {
			a = &accum{buckets: make(map[model.CTABucket]int)}
			byBrand[s.Brand] = a
			order = append(order, s.Brand)
		}
		a.sum += s.Score
		a.count++
		a.buckets[s.Bucket]++
	}

	out := make([]model.CTABrandAggregate, 0, len(order))
	for _, brand := range order {
		a := byBrand[brand]
		out = append(out, model.CTABrandAggregate{
			Brand:        brand,
			MeanScore:    a.sum / float64(a.count),
			BucketCounts: a.buckets,
		})
	}
	return out
}
