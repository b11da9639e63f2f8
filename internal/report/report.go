package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"time"

	uuid "github.com/satori/go.uuid"

	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/probe"
)

type Report struct {
	SchemaVersion string          `json:"schema_version"`
	RunID         string          `json:"run_id"`
	Target        string          `json:"target"`
	GeneratedAt   string          `json:"generated_at"`
	TotalFindings int             `json:"total_findings"`
	Findings      []probe.Outcome `json:"findings"`
}

// Aggregate collapses raw probe outcomes into a report. When the same
// (bucket, provider) pair was probed more than once, the outcome with
// the highest access level wins. Findings are ordered most permissive
// first, with equal levels sorted by bucket name.
func Aggregate(target string, outcomes []probe.Outcome, minLevel probe.AccessLevel) *Report {
	best := make(map[string]probe.Outcome)
	for _, out := range outcomes {
		key := out.Candidate.Name + "\x00" + string(out.Provider)
		if prev, ok := best[key]; !ok || out.Access > prev.Access {
			best[key] = out
		}
	}

	findings := make([]probe.Outcome, 0, len(best))
	for _, out := range best {
		if out.Access >= minLevel {
			findings = append(findings, out)
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Access != findings[j].Access {
			return findings[i].Access > findings[j].Access
		}
		if findings[i].Candidate.Name != findings[j].Candidate.Name {
			return findings[i].Candidate.Name < findings[j].Candidate.Name
		}
		return findings[i].Provider < findings[j].Provider
	})

	return &Report{
		SchemaVersion: "1.0",
		RunID:         uuid.NewV4().String(),
		Target:        target,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		TotalFindings: len(findings),
		Findings:      findings,
	}
}

func SaveJSON(r *Report, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func SaveCSV(r *Report, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"bucket", "provider", "access", "http_status", "detail", "timestamp"}); err != nil {
		return err
	}
	for _, f := range r.Findings {
		record := []string{
			f.Candidate.Name,
			string(f.Provider),
			f.Access.String(),
			strconv.Itoa(f.HTTPStatus),
			f.Detail,
			f.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
