package intelligence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHerfindahl_FullConcentrationIsOne(t *testing.T) {
	assert.InDelta(t, 1.0, herfindahl(map[string]int{"a": 10}), 1e-9)
}

func TestHerfindahl_EvenSplitAcrossNIsOneOverN(t *testing.T) {
	counts := map[string]int{"a": 5, "b": 5, "c": 5, "d": 5}
	assert.InDelta(t, 0.25, herfindahl(counts), 1e-9)
}

func TestHerfindahl_EmptyIsZero(t *testing.T) {
	assert.Zero(t, herfindahl(map[string]int{}))
}
