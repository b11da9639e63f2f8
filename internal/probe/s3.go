package probe

import (
	"context"
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

// S3Probe checks candidates against the AWS S3 REST endpoint. It first
// tries the virtual-hosted URL and falls back to the legacy path-style
// URL when the vhost does not resolve.
type S3Probe struct {
	client *transport.Client

	// Endpoint templates, overridable for tests and S3-compatible stores.
	VHostURL string // fmt template, %s = bucket name
	PathURL  string // fmt template, %s = bucket name

	strictErrors bool
}

func NewS3Probe(client *transport.Client, strictErrors bool) *S3Probe {
	return &S3Probe{
		client:       client,
		VHostURL:     "https://%s.s3.amazonaws.com/",
		PathURL:      "https://s3.amazonaws.com/%s/",
		strictErrors: strictErrors,
	}
}

func (p *S3Probe) Provider() Provider { return ProviderS3 }

// listBucketResult is the subset of the S3 listing XML the probe needs.
type listBucketResult struct {
	XMLName  xml.Name `xml:"ListBucketResult"`
	Name     string   `xml:"Name"`
	Contents []struct {
		Key  string `xml:"Key"`
		Size int64  `xml:"Size"`
	} `xml:"Contents"`
}

func (p *S3Probe) Probe(ctx context.Context, candidate mutate.Candidate) Outcome {
	vhostURL := fmt.Sprintf(p.VHostURL, candidate.Name)

	resp, body, err := p.client.Get(ctx, vhostURL)
	if err != nil {
		if transport.IsHostNotFound(err) {
			// Path-style reaches the shared endpoint even when the
			// bucket vhost has no DNS entry.
			resp, body, err = p.client.Get(ctx, fmt.Sprintf(p.PathURL, url.PathEscape(candidate.Name)))
		}
		if err != nil {
			return networkOutcome(candidate, ProviderS3, err, p.strictErrors)
		}
	}

	return p.classify(ctx, candidate, resp, body)
}

func (p *S3Probe) classify(ctx context.Context, candidate mutate.Candidate, resp *http.Response, body []byte) Outcome {
	out := Outcome{
		Candidate:  candidate,
		Provider:   ProviderS3,
		HTTPStatus: resp.StatusCode,
		Timestamp:  time.Now().UTC(),
	}

	text := string(body)

	switch {
	case resp.StatusCode == http.StatusNotFound || strings.Contains(text, "NoSuchBucket"):
		out.Access = AccessNotFound

	case resp.StatusCode == http.StatusForbidden && strings.Contains(text, "AccessDenied"):
		// Bucket exists, listing denied.
		out.Access = AccessPrivate

	case resp.StatusCode == http.StatusForbidden:
		out.Access = AccessForbidden
		out.Detail = errorCode(text)

	case resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusTemporaryRedirect:
		// Bucket exists in another region; listing status unknown from here.
		out.Access = AccessPrivate
		if region := resp.Header.Get("x-amz-bucket-region"); region != "" {
			out.Detail = "region: " + region
		}

	case resp.StatusCode == http.StatusOK:
		var listing listBucketResult
		if err := xml.Unmarshal(body, &listing); err != nil {
			out.Access = AccessError
			out.Detail = fmt.Sprintf("unrecognized 200 body: %s", truncate(text, 120))
			break
		}
		out.Access = AccessListable
		out.Detail = fmt.Sprintf("%d objects listed", len(listing.Contents))
		if key, ok := firstKey(listing); ok && p.objectReadable(ctx, candidate.Name, key) {
			out.Access = AccessReadable
			out.Detail = "object retrievable: " + key
		}

	default:
		out.Access = AccessError
		out.Detail = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(text, 120))
	}

	log.Debugf("s3 %s -> %s (%d)", candidate.Name, out.Access, out.HTTPStatus)
	return out
}

// objectReadable fetches one listed object to tell a listable bucket
// from a fully readable one.
func (p *S3Probe) objectReadable(ctx context.Context, bucket, key string) bool {
	objectURL := strings.TrimSuffix(fmt.Sprintf(p.VHostURL, bucket), "/") + "/" + url.PathEscape(key)
	resp, _, err := p.client.Get(ctx, objectURL)
	return err == nil && resp.StatusCode == http.StatusOK
}

func firstKey(listing listBucketResult) (string, bool) {
	for _, obj := range listing.Contents {
		if obj.Key != "" && !strings.HasSuffix(obj.Key, "/") {
			return obj.Key, true
		}
	}
	return "", false
}
