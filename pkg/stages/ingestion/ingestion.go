// Package ingestion implements the Ingestion stage: paginated, bounded-
// parallelism ad-archive fetch per ranked competitor, normalized into the
// shared Ad schema.
package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adintel/compintel/pkg/adarchive"
	"github.com/adintel/compintel/pkg/artifact"
	"github.com/adintel/compintel/pkg/model"
	"github.com/adintel/compintel/pkg/pipeerr"
	"github.com/adintel/compintel/pkg/retry"
	"github.com/adintel/compintel/pkg/runctx"
	"github.com/adintel/compintel/pkg/stage"
)

const Name = "ingestion"

// ingestionWindow is how far back to fetch ads for each brand.
const ingestionWindow = 90 * 24 * time.Hour

// minActiveDays drops transient test ads per the business rule in §4.5.
const minActiveDays = 2

var timeNow = time.Now

// Stage fetches and normalizes each ranked competitor's current ad set.
type Stage struct {
	AdArchive adarchive.Provider
	Store     artifact.Store
}

// New constructs the Ingestion stage.
func New(adArchive adarchive.Provider, store artifact.Store) *Stage {
	return &Stage{AdArchive: adArchive, Store: store}
}

func (s *Stage) Name() string { return Name }

func (s *Stage) Run(ctx context.Context, rc *runctx.RunContext) stage.Result {
	start := timeNow()
	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "starting ingestion"})

	raw, ok, err := s.Store.Get(ctx, artifact.Name(artifact.KindRanked, rc.RunID))
	if err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}
	if !ok {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindInput, fmt.Errorf("no ranked competitors artifact for run %s", rc.RunID)))
	}
	var ranked []model.RankedCompetitor
	if err := json.Unmarshal(raw, &ranked); err != nil {
		return stage.FailedResult(start, fmt.Errorf("decoding ranked competitors: %w", err))
	}

	brands := make([]string, 0, len(ranked)+1)
	brands = append(brands, rc.Brand)
	for _, r := range ranked {
		brands = append(brands, r.Name)
	}

	parallelism := rc.Config.Budgets.AdFetchParallelism
	if parallelism < 1 {
		parallelism = 1
	}
	since := timeNow().Add(-ingestionWindow)

	perBrandRecords, perBrandErr := retry.PoolCollect(ctx, parallelism, brands, func(ctx context.Context, brand string) ([]model.RawAdRecord, error) {
		return s.AdArchive.ListAds(ctx, brand, since)
	})

	var ads []model.Ad
	successfulBrands := 0
	for i, records := range perBrandRecords {
		if perBrandErr[i] != nil {
			continue
		}
		successfulBrands++
		for _, record := range records {
			ad, keep := Normalize(record, timeNow())
			if keep {
				ads = append(ads, ad)
			}
		}
	}

	if successfulBrands == 0 {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindUpstreamUnavailable,
			fmt.Errorf("ad archive fetch failed for every brand")))
	}

	payload, err := json.Marshal(ads)
	if err != nil {
		return stage.FailedResult(start, fmt.Errorf("encoding ads artifact: %w", err))
	}
	name := artifact.Name(artifact.KindAds, rc.RunID)
	if err := s.Store.Put(ctx, name, payload); err != nil {
		return stage.FailedResult(start, pipeerr.New(Name, pipeerr.KindWarehouseError, err))
	}

	rc.Progress.Report(runctx.ProgressEvent{Stage: Name, Message: "ingestion complete", Current: len(ads), Total: len(brands)})

	if successfulBrands < len(brands) {
		return stage.DegradedResult(start,
			fmt.Sprintf("ad archive fetch failed for %d of %d brands", len(brands)-successfulBrands, len(brands)), name)
	}
	return stage.OKResult(start, name)
}

// Normalize converts one raw archive record into the shared Ad schema,
// merging text and visual URIs across every carousel/card variant, and
// reporting keep=false for ads that fail the transient-test-ad business
// rule (active_days < minActiveDays).
func Normalize(record model.RawAdRecord, now time.Time) (model.Ad, bool) {
	creativeText := mergeCreativeText(record)
	visualURIs := visualURIsFor(record.Cards)

	var startTS time.Time
	if record.StartTS != nil {
		startTS = *record.StartTS
	}
	activeDays := inclusiveDayDiff(startTS, record.EndTS, now)

	primaryVisualURI := ""
	if len(visualURIs) > 0 {
		primaryVisualURI = visualURIs[0]
	}

	ad := model.Ad{
		AdID:               record.AdID,
		Brand:              record.Brand,
		CreativeText:       creativeText,
		MediaType:          mediaTypeFor(record.Cards),
		PrimaryVisualURI:   primaryVisualURI,
		VisualURIs:         visualURIs,
		CardCount:          len(record.Cards),
		StartTS:            startTS,
		EndTS:              record.EndTS,
		ActiveDays:         activeDays,
		PublisherPlatforms: record.PublisherPlatforms,
		PageCategory:       record.PageCategory,
	}

	return ad, activeDays >= minActiveDays
}

// mergeCreativeText joins the record's title, body, and every card's body
// into one pipe-separated string in stable order, omitting empties — §4.5's
// core text-normalization rule.
func mergeCreativeText(record model.RawAdRecord) string {
	parts := make([]string, 0, 2+len(record.Cards))
	if record.Title != "" {
		parts = append(parts, record.Title)
	}
	if record.Body != "" {
		parts = append(parts, record.Body)
	}
	for _, card := range record.Cards {
		if card.Body != "" {
			parts = append(parts, card.Body)
		}
	}
	return strings.Join(parts, "|")
}

// visualURIsFor collects one visual URI per card that carries any
// image/video URI (original image > resized image > video preview,
// per RawAdCard.BestVisualURI), in card order. Its length therefore equals
// the count of cards with any visual URI, not the raw URI count.
func visualURIsFor(cards []model.RawAdCard) []string {
	var uris []string
	for _, card := range cards {
		if uri := card.BestVisualURI(); uri != "" {
			uris = append(uris, uri)
		}
	}
	return uris
}

// mediaTypeFor classifies an ad's media composition across every card,
// so a carousel mixing video and image cards is seen as MIXED rather than
// whatever its first card alone would suggest.
func mediaTypeFor(cards []model.RawAdCard) model.MediaType {
	hasVideo, imageCount := false, 0
	for _, card := range cards {
		if card.HasVideo() {
			hasVideo = true
		}
		if card.HasImage() {
			imageCount++
		}
	}
	switch {
	case hasVideo && imageCount > 0:
		return model.MediaMixed
	case hasVideo:
		return model.MediaVideo
	case imageCount > 1:
		return model.MediaCarousel
	case imageCount == 1:
		return model.MediaImage
	default:
		return model.MediaTextOnly
	}
}

// inclusiveDayDiff computes the inclusive day span of an ad's flight,
// using now when end is nil (the ad is still active).
func inclusiveDayDiff(start time.Time, end *time.Time, now time.Time) int {
	if start.IsZero() {
		return 0
	}
	stop := now
	if end != nil {
		stop = *end
	}
	days := int(stop.Sub(start).Hours()/24) + 1
	if days < 0 {
		return 0
	}
	return days
}
