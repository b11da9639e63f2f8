package config

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

type Config struct {
	Domain         string
	SubdomainsFile string
	TemplatesFile  string
	Providers      []string
	Containers     []string
	Concurrency    int
	Timeout        int
	RetryAttempts  int
	RateLimit      int
	MaxResponseMB  int
	ShowAll        bool
	StrictErrors   bool
	OutputFile     string
	CSVFile        string
	HTMLFile       string
	LogLevel       string
	Verbose        bool
}

var domainPattern = regexp.MustCompile(`(?i)^[a-z0-9][a-z0-9-]{1,61}[a-z0-9](\.[a-z]{2,})+$`)

var knownProviders = map[string]bool{"s3": true, "gcs": true, "azure": true}

func envOrDefault(envKey string, defaultVal int) int {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func envOrDefaultStr(envKey string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return defaultVal
}

func Parse() Config {
	var config Config

	flag.StringVar(&config.Domain, "d", "", "Target domain (required, e.g. example.com)")
	flag.StringVar(&config.SubdomainsFile, "subs", "", "File with discovered subdomains (one per line)")
	flag.StringVar(&config.TemplatesFile, "templates", "", "File with naming templates (one per line)")
	providers := flag.String("p", envOrDefaultStr("BUCKETSCAN_PROVIDERS", "s3,gcs,azure"), "Providers to probe (comma-separated: s3,gcs,azure)")
	containers := flag.String("containers", "", "Extra Azure container names to try (comma-separated)")
	flag.IntVar(&config.Concurrency, "c", envOrDefault("BUCKETSCAN_CONCURRENCY", 20), "Number of concurrent probe workers")
	flag.IntVar(&config.Timeout, "timeout", envOrDefault("BUCKETSCAN_TIMEOUT", 10), "Request timeout in seconds")
	flag.IntVar(&config.RetryAttempts, "retries", 2, "Number of retry attempts for transient failures")
	flag.IntVar(&config.RateLimit, "rate-limit", envOrDefault("BUCKETSCAN_RATE_LIMIT", 10), "Max requests per second per provider (0=unlimited)")
	flag.IntVar(&config.MaxResponseMB, "max-response-mb", 10, "Max response body size in MB")
	flag.BoolVar(&config.ShowAll, "all", false, "Report every probed candidate, not just exposed ones")
	flag.BoolVar(&config.StrictErrors, "strict-errors", false, "Report unresolvable hosts as errors instead of not found")
	flag.StringVar(&config.OutputFile, "o", "", "Output file (JSON format)")
	flag.StringVar(&config.CSVFile, "csv", "", "CSV report file")
	flag.StringVar(&config.HTMLFile, "html", "", "HTML report file")
	flag.StringVar(&config.LogLevel, "log-level", envOrDefaultStr("BUCKETSCAN_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	flag.BoolVar(&config.Verbose, "v", false, "Verbose mode (same as -log-level debug)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: publicbucketscanner [options]\n\n")
		fmt.Fprintf(os.Stderr, "Required:\n")
		fmt.Fprintf(os.Stderr, "  -d string       Target domain (e.g. example.com)\n\n")
		fmt.Fprintf(os.Stderr, "Optional:\n")
		fmt.Fprintf(os.Stderr, "  -subs string    Subdomain file, one label or hostname per line\n")
		fmt.Fprintf(os.Stderr, "  -templates str  Naming template file, one template per line\n")
		fmt.Fprintf(os.Stderr, "  -p string       Providers: s3,gcs,azure (default: all, env: BUCKETSCAN_PROVIDERS)\n")
		fmt.Fprintf(os.Stderr, "  -c int          Concurrent workers (default: 20, env: BUCKETSCAN_CONCURRENCY)\n")
		fmt.Fprintf(os.Stderr, "  --timeout int   Request timeout in seconds (default: 10, env: BUCKETSCAN_TIMEOUT)\n")
		fmt.Fprintf(os.Stderr, "  --retries int   Retry attempts for transient failures (default: 2)\n")
		fmt.Fprintf(os.Stderr, "  --rate-limit int Max req/s per provider (default: 10, env: BUCKETSCAN_RATE_LIMIT)\n")
		fmt.Fprintf(os.Stderr, "  --containers s  Extra Azure containers (comma-separated)\n")
		fmt.Fprintf(os.Stderr, "  --all           Report every candidate, not only exposed ones\n")
		fmt.Fprintf(os.Stderr, "  --strict-errors Treat unresolvable hosts as errors, not misses\n")
		fmt.Fprintf(os.Stderr, "  --log-level str Log level: debug|info|warn|error (default: info)\n")
		fmt.Fprintf(os.Stderr, "  -v              Verbose mode\n")
		fmt.Fprintf(os.Stderr, "  -o string       JSON output file\n")
		fmt.Fprintf(os.Stderr, "  --csv string    CSV report file\n")
		fmt.Fprintf(os.Stderr, "  --html string   HTML report file\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  publicbucketscanner -d example.com\n")
		fmt.Fprintf(os.Stderr, "  publicbucketscanner -d example.com -subs subs.txt -p s3,azure -o report.json\n")
		fmt.Fprintf(os.Stderr, "  BUCKETSCAN_CONCURRENCY=50 publicbucketscanner -d example.com --all\n")
	}

	flag.Parse()

	config.Providers = splitList(*providers)
	config.Containers = splitList(*containers)

	if config.Verbose {
		config.LogLevel = "debug"
	}

	return config
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

func Validate(config *Config) error {
	if config.Domain == "" {
		return fmt.Errorf("target domain is required (-d). Provide a domain like example.com")
	}

	config.Domain = strings.ToLower(strings.TrimSuffix(config.Domain, "."))
	if !domainPattern.MatchString(config.Domain) {
		return fmt.Errorf("invalid domain %q. Expected a registered name like example.com", config.Domain)
	}

	if len(config.Providers) == 0 {
		return fmt.Errorf("no providers selected. Use -p with a subset of s3,gcs,azure")
	}

	for _, p := range config.Providers {
		if !knownProviders[p] {
			return fmt.Errorf("unknown provider %q. Valid values: s3, gcs, azure", p)
		}
	}

	if config.SubdomainsFile != "" {
		if _, err := os.Stat(config.SubdomainsFile); os.IsNotExist(err) {
			return fmt.Errorf("subdomain file not found: %s. Check the path and try again", config.SubdomainsFile)
		}
	}

	if config.TemplatesFile != "" {
		if _, err := os.Stat(config.TemplatesFile); os.IsNotExist(err) {
			return fmt.Errorf("template file not found: %s. Check the path and try again", config.TemplatesFile)
		}
	}

	if config.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d. Use -c to set (default: 20)", config.Concurrency)
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d. Use --timeout to set (default: 10)", config.Timeout)
	}

	if config.RetryAttempts < 0 {
		return fmt.Errorf("retries must not be negative, got %d. Use --retries to set (default: 2)", config.RetryAttempts)
	}

	if config.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %d", config.RateLimit)
	}

	if config.MaxResponseMB <= 0 {
		return fmt.Errorf("max response size must be positive, got %d. Use --max-response-mb to set (default: 10)", config.MaxResponseMB)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[config.LogLevel] {
		return fmt.Errorf("invalid log level %q. Valid values: debug, info, warn, error", config.LogLevel)
	}

	return nil
}
