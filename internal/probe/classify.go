package probe

import (
	"regexp"
	"time"

	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/mutate"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/transport"
)

// networkOutcome demotes a post-retry network failure into an outcome.
// A hostname that does not resolve (or refuses connections) is
// indistinguishable from "bucket does not exist" for vhost endpoints,
// so it defaults to NOT_FOUND; strict mode keeps it as ERROR instead.
func networkOutcome(candidate mutate.Candidate, provider Provider, err error, strict bool) Outcome {
	out := Outcome{
		Candidate: candidate,
		Provider:  provider,
		Access:    AccessError,
		Detail:    err.Error(),
		Timestamp: time.Now().UTC(),
	}
	if !strict && transport.IsHostNotFound(err) {
		out.Access = AccessNotFound
		out.Detail = ""
	}
	return out
}

var codePattern = regexp.MustCompile(`<Code>([^<]+)</Code>`)

// errorCode pulls the provider error code out of an XML error body.
func errorCode(body string) string {
	if m := codePattern.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
