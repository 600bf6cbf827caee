// Package adarchive defines the ad archive provider port used by Ingestion,
// and a default HTTP adapter.
package adarchive

import (
	"context"
	"time"

	"github.com/adintel/compintel/pkg/model"
)

// Provider is the ad archive external collaborator: a single
// brand-scoped listing call, kept narrow per the out-of-scope boundary.
// Each returned model.RawAdRecord carries its own title, body, and every
// carousel/card variant, so Ingestion can merge across cards rather than
// normalizing one pre-flattened card at a time.
type Provider interface {
	ListAds(ctx context.Context, brand string, since time.Time) ([]model.RawAdRecord, error)
}
