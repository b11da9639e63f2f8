package mutate

import (
	"bufio"
	"os"
	"sort"
	"strings"

	tld "github.com/jpillora/go-tld"
)

// Source records which kind of template produced a candidate.
type Source string

const (
	SourceRaw       Source = "raw"
	SourcePrefix    Source = "prefix"
	SourceSuffix    Source = "suffix"
	SourceSubdomain Source = "subdomain"
)

// Candidate is a hypothesized bucket/account/container name. Immutable
// once generated; uniqueness is enforced on Name.
type Candidate struct {
	Name   string `json:"name"`
	Source Source `json:"source"`
}

// Template placeholders. {d} is the keyword as-is, {d-} its dots-to-dashes
// form, {b} its registrable label with the public suffix stripped.
const (
	phDomain = "{d}"
	phDashed = "{d-}"
	phBare   = "{b}"
)

// DefaultTemplates are the naming conventions tried for every keyword.
func DefaultTemplates() []string {
	return []string{
		"{d}",
		"{d-}",
		"{b}",
		"{d}-bucket",
		"bucket-{d}",
		"{b}-bucket",
		"bucket-{b}",
		"{d}-public",
		"public-{d}",
		"{b}-backup",
		"{b}-data",
		"{b}-assets",
		"{b}-static",
		"{b}-dev",
		"{b}-prod",
	}
}

// Generate expands templates over the target domain and any discovered
// subdomain labels. Pure function: no network, no I/O. The result is
// deduplicated on normalized name and sorted for determinism.
func Generate(domain string, subdomains []string, templates []string) []Candidate {
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}

	type keyword struct {
		text       string
		fromSubdom bool
	}

	keywords := []keyword{{text: domain}}
	for _, sub := range subdomains {
		sub = strings.TrimSpace(sub)
		if sub == "" || sub == domain {
			continue
		}
		keywords = append(keywords, keyword{text: sub, fromSubdom: true})
	}

	seen := make(map[string]Candidate)
	for _, kw := range keywords {
		for _, tpl := range templates {
			name := Normalize(expand(tpl, kw.text))
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = Candidate{Name: name, Source: classify(tpl, kw.fromSubdom)}
		}
	}

	out := make([]Candidate, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func expand(tpl, keyword string) string {
	s := strings.ReplaceAll(tpl, phDashed, strings.ReplaceAll(keyword, ".", "-"))
	s = strings.ReplaceAll(s, phBare, stripTLD(keyword))
	return strings.ReplaceAll(s, phDomain, keyword)
}

// Normalize lowercases a raw name and strips everything outside the
// conservative shared bucket charset [a-z0-9.-]. Names that end up
// empty, too short or longer than 63 characters are dropped (returned
// as ""), never reported as errors.
func Normalize(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))

	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		}
	}

	name := strings.Trim(b.String(), "-.")
	if len(name) < 3 || len(name) > 63 {
		return ""
	}
	return name
}

func classify(tpl string, fromSubdomain bool) Source {
	if fromSubdomain {
		return SourceSubdomain
	}
	stripped := tpl
	for _, ph := range []string{phDashed, phBare, phDomain} {
		stripped = strings.ReplaceAll(stripped, ph, "\x00")
	}
	switch {
	case stripped == "\x00":
		return SourceRaw
	case strings.HasPrefix(stripped, "\x00"):
		return SourceSuffix
	case strings.HasSuffix(stripped, "\x00"):
		return SourcePrefix
	default:
		return SourceRaw
	}
}

// stripTLD returns the registrable label of a domain without its public
// suffix ("assets.example.co.uk" -> "example"). Keywords without a
// recognizable suffix (plain subdomain labels) are returned unchanged.
func stripTLD(keyword string) string {
	if !strings.Contains(keyword, ".") {
		return strings.ToLower(keyword)
	}
	u, err := tld.Parse("https://" + keyword)
	if err != nil || u.Domain == "" {
		return strings.ToLower(keyword)
	}
	return strings.ToLower(u.Domain)
}

// LoadTemplates reads one naming template per line. Blank lines and
// # comments are skipped.
func LoadTemplates(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var templates []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		templates = append(templates, line)
	}

	return templates, sc.Err()
}

// LoadSubdomains reads one subdomain label per line. Blank lines and
// # comments are skipped. Full hostnames are reduced to their first label.
func LoadSubdomains(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var labels []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '.'); i > 0 {
			line = line[:i]
		}
		labels = append(labels, strings.ToLower(line))
	}

	return labels, sc.Err()
}
