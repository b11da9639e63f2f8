package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/mutate"
)

// Provider identifies a cloud storage backend.
type Provider string

const (
	ProviderS3    Provider = "s3"
	ProviderGCS   Provider = "gcs"
	ProviderAzure Provider = "azure"
)

// AccessLevel classifies how exposed a candidate is. The ordering is a
// total order used for dedup tie-breaks and report sorting: a higher
// value is always the more interesting finding.
type AccessLevel int

const (
	AccessError AccessLevel = iota
	AccessNotFound
	AccessForbidden
	AccessPrivate
	AccessListable
	AccessReadable
)

var accessNames = map[AccessLevel]string{
	AccessError:     "error",
	AccessNotFound:  "not_found",
	AccessForbidden: "forbidden",
	AccessPrivate:   "private",
	AccessListable:  "listable",
	AccessReadable:  "readable",
}

func (a AccessLevel) String() string {
	if name, ok := accessNames[a]; ok {
		return name
	}
	return "unknown"
}

func (a AccessLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *AccessLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	level, ok := ParseAccessLevel(s)
	if !ok {
		return fmt.Errorf("unknown access level %q", s)
	}
	*a = level
	return nil
}

// ParseAccessLevel maps a level name back to its AccessLevel.
func ParseAccessLevel(s string) (AccessLevel, bool) {
	for level, name := range accessNames {
		if name == s {
			return level, true
		}
	}
	return AccessError, false
}

// Outcome is the result of probing one candidate against one provider.
// It is immutable once created.
type Outcome struct {
	Candidate  mutate.Candidate `json:"candidate"`
	Provider   Provider         `json:"provider"`
	Access     AccessLevel      `json:"access"`
	HTTPStatus int              `json:"http_status,omitempty"`
	Detail     string           `json:"detail,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Prober checks a single candidate name against one provider's storage
// endpoint. Implementations are a closed set: S3, GCS and Azure.
type Prober interface {
	Provider() Provider
	Probe(ctx context.Context, candidate mutate.Candidate) Outcome
}
