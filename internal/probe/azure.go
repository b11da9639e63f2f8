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

// DefaultContainers are the container guesses tried against every
// candidate storage account, alongside the candidate name itself.
func DefaultContainers() []string {
	return []string{
		"public", "data", "files", "backup", "backups", "assets",
		"static", "images", "media", "uploads", "archive", "$root", "$web",
	}
}

// AzureProbe checks candidates against Azure Blob Storage. The candidate
// doubles as the storage-account guess and as one of the container
// guesses; the account hostname failing to resolve ends the probe early
// since no container can exist without its account.
type AzureProbe struct {
	client *transport.Client

	// HostTemplate is the account endpoint, %s = account name.
	// Overridable for tests.
	HostTemplate string

	containers   []string
	strictErrors bool
}

func NewAzureProbe(client *transport.Client, containers []string, strictErrors bool) *AzureProbe {
	if len(containers) == 0 {
		containers = DefaultContainers()
	}
	return &AzureProbe{
		client:       client,
		HostTemplate: "https://%s.blob.core.windows.net",
		containers:   containers,
		strictErrors: strictErrors,
	}
}

func (p *AzureProbe) Provider() Provider { return ProviderAzure }

// enumerationResults is the subset of the Azure blob listing XML the
// probe needs.
type enumerationResults struct {
	XMLName xml.Name `xml:"EnumerationResults"`
	Blobs   struct {
		Blob []struct {
			Name string `xml:"Name"`
		} `xml:"Blob"`
	} `xml:"Blobs"`
}

func (p *AzureProbe) Probe(ctx context.Context, candidate mutate.Candidate) Outcome {
	account := accountName(candidate.Name)
	if account == "" {
		return Outcome{
			Candidate: candidate,
			Provider:  ProviderAzure,
			Access:    AccessNotFound,
			Detail:    "no valid storage-account form",
			Timestamp: time.Now().UTC(),
		}
	}

	base := fmt.Sprintf(p.HostTemplate, account)

	best := Outcome{
		Candidate: candidate,
		Provider:  ProviderAzure,
		Access:    AccessNotFound,
		Timestamp: time.Now().UTC(),
	}

	containers := append([]string{account}, p.containers...)
	for _, container := range containers {
		select {
		case <-ctx.Done():
			return best
		default:
		}

		listURL := fmt.Sprintf("%s/%s?restype=container&comp=list", base, url.PathEscape(container))

		resp, body, err := p.client.Get(ctx, listURL)
		if err != nil {
			if transport.IsHostNotFound(err) {
				// Account hostname does not resolve: no container of
				// this account can exist, stop enumerating.
				return networkOutcome(candidate, ProviderAzure, err, p.strictErrors)
			}
			best = higher(best, networkOutcome(candidate, ProviderAzure, err, p.strictErrors))
			continue
		}

		best = higher(best, p.classifyContainer(candidate, container, resp, body))
		if best.Access >= AccessListable {
			break
		}
	}

	log.Debugf("azure %s -> %s (%d)", candidate.Name, best.Access, best.HTTPStatus)
	return best
}

func (p *AzureProbe) classifyContainer(candidate mutate.Candidate, container string, resp *http.Response, body []byte) Outcome {
	out := Outcome{
		Candidate:  candidate,
		Provider:   ProviderAzure,
		HTTPStatus: resp.StatusCode,
		Timestamp:  time.Now().UTC(),
	}

	text := string(body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		out.Access = AccessNotFound

	case http.StatusForbidden:
		// Account exists; this container (or the whole account) denies
		// anonymous access.
		out.Access = AccessPrivate
		out.Detail = "container: " + container

	case http.StatusConflict:
		out.Access = AccessForbidden
		out.Detail = "account disabled"

	case http.StatusOK:
		var listing enumerationResults
		if err := xml.Unmarshal(body, &listing); err != nil {
			out.Access = AccessError
			out.Detail = fmt.Sprintf("unrecognized 200 body: %s", truncate(text, 120))
			break
		}
		out.Access = AccessListable
		out.Detail = fmt.Sprintf("container %s: %d blobs listed", container, len(listing.Blobs.Blob))

	default:
		out.Access = AccessError
		out.Detail = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(text, 120))
	}

	return out
}

// accountName reduces a candidate to Azure's storage-account charset:
// lowercase alphanumerics, 3 to 24 characters.
func accountName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	account := b.String()
	if len(account) < 3 {
		return ""
	}
	if len(account) > 24 {
		account = account[:24]
	}
	return account
}

func higher(a, b Outcome) Outcome {
	if b.Access > a.Access {
		return b
	}
	return a
}
