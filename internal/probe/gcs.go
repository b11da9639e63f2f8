package probe

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/mutate"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/transport"
)

// GCSProbe checks candidates against Google Cloud Storage through the
// path-style XML endpoint.
type GCSProbe struct {
	client *transport.Client

	// BaseURL is the storage endpoint, overridable for tests.
	BaseURL string

	strictErrors bool
}

func NewGCSProbe(client *transport.Client, strictErrors bool) *GCSProbe {
	return &GCSProbe{
		client:       client,
		BaseURL:      "https://storage.googleapis.com",
		strictErrors: strictErrors,
	}
}

func (p *GCSProbe) Provider() Provider { return ProviderGCS }

func (p *GCSProbe) Probe(ctx context.Context, candidate mutate.Candidate) Outcome {
	bucketURL := fmt.Sprintf("%s/%s/", p.BaseURL, url.PathEscape(candidate.Name))

	resp, body, err := p.client.Get(ctx, bucketURL)
	if err != nil {
		return networkOutcome(candidate, ProviderGCS, err, p.strictErrors)
	}

	out := Outcome{
		Candidate:  candidate,
		Provider:   ProviderGCS,
		HTTPStatus: resp.StatusCode,
		Timestamp:  time.Now().UTC(),
	}

	text := string(body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		out.Access = AccessNotFound

	case http.StatusUnauthorized, http.StatusForbidden:
		out.Access = AccessPrivate
		out.Detail = errorCode(text)

	case http.StatusOK:
		if n, ok := parseGCSListing(body); ok {
			out.Access = AccessListable
			out.Detail = fmt.Sprintf("%d objects listed", n)
		} else {
			out.Access = AccessError
			out.Detail = fmt.Sprintf("unrecognized 200 body: %s", truncate(text, 120))
		}

	default:
		out.Access = AccessError
		out.Detail = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(text, 120))
	}

	log.Debugf("gcs %s -> %s (%d)", candidate.Name, out.Access, out.HTTPStatus)
	return out
}

// parseGCSListing accepts both response shapes the endpoint serves: the
// XML ListBucketResult and the JSON API object list.
func parseGCSListing(body []byte) (int, bool) {
	trimmed := strings.TrimSpace(string(body))

	if strings.HasPrefix(trimmed, "{") {
		var listing struct {
			Items []struct {
				Name string `json:"name"`
			} `json:"items"`
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(body, &listing); err == nil {
			return len(listing.Items), true
		}
		return 0, false
	}

	var listing listBucketResult
	if err := xml.Unmarshal(body, &listing); err == nil {
		return len(listing.Contents), true
	}
	return 0, false
}
