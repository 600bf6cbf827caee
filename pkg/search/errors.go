package search

import (
	"errors"
	"net"

	"github.com/adintel/compintel/pkg/pipeerr"
)

var errRateLimited = errors.New("search backend rate limited the request")

func isRetryableHTTPErr(err error) bool {
	if errors.Is(err, errRateLimited) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

func classify(err error) pipeerr.Kind {
	if errors.Is(err, errRateLimited) {
		return pipeerr.KindUpstreamRateLimit
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return pipeerr.KindUpstreamUnavailable
	}
	return pipeerr.KindUpstreamUnavailable
}
