package ai

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/adintel/compintel/pkg/model"
)

// Embed produces a deterministic, fixed-dimension pseudo-embedding for
// text. It is not a trained semantic embedding — it is seeded structurally
// (3-character shingles hashed into buckets) so that near-duplicate text produces
// near-identical vectors, which is sufficient for the Similarity stage's
// copying-detection use case without depending on a second model provider
// purely for vector generation.
func Embed(text string) []float64 {
	vec := make([]float64, model.EmbeddingDimension)
	shingles := shingle(text, 3)
	if len(shingles) == 0 {
		return vec
	}

	for _, sh := range shingles {
		sum := sha256.Sum256([]byte(sh))
		for i := 0; i < len(sum)-8; i += 8 {
			bucket := binary.BigEndian.Uint64(sum[i:i+8]) % uint64(model.EmbeddingDimension)
			sign := 1.0
			if sum[i]%2 == 0 {
				sign = -1.0
			}
			vec[bucket] += sign
		}
	}

	normalize(vec)
	return vec
}

func shingle(text string, n int) []string {
	words := []rune(text)
	if len(words) < n {
		if len(words) == 0 {
			return nil
		}
		return []string{string(words)}
	}
	out := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		out = append(out, string(words[i:i+n]))
	}
	return out
}

func normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}
