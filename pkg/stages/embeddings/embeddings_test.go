package embeddings

import (
	"testing"

	"github.com/adintel/compintel/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestStructuredText_SplitsTitleAndBodyOnFirstPipe(t *testing.T) {
	ad := model.Ad{CreativeText: "Big Sale | Shop now and save | Card 2 text"}
	text, flags := structuredText(ad)
	assert.Contains(t, text, "Title: Big Sale")
	assert.Contains(t, text, "Content: Shop now and save Card 2 text")
	assert.True(t, flags.HasTitle)
	assert.True(t, flags.HasBody)
	assert.True(t, flags.HasCTA)
}

func TestStructuredText_SingleSegmentHasNoTitle(t *testing.T) {
	ad := model.Ad{CreativeText: "Just body text"}
	_, flags := structuredText(ad)
	assert.False(t, flags.HasTitle)
	assert.True(t, flags.HasBody)
}

func TestStructuredText_EmptyCreativeTextHasNoFlags(t *testing.T) {
	_, flags := structuredText(model.Ad{})
	assert.False(t, flags.HasTitle)
	assert.False(t, flags.HasBody)
	assert.False(t, flags.HasCTA)
}

func TestDetectCTA_IsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "buy now", detectCTA("Don't wait, BUY NOW while supplies last"))
	assert.Equal(t, "", detectCTA("Nothing actionable here"))
}
