package config

import (
	"os"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Domain:        "example.com",
		Providers:     []string{"s3", "gcs", "azure"},
		Concurrency:   20,
		Timeout:       10,
		RetryAttempts: 2,
		RateLimit:     10,
		MaxResponseMB: 10,
		LogLevel:      "info",
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NoDomain(t *testing.T) {
	cfg := validConfig()
	cfg.Domain = ""
	if err := Validate(cfg); err == nil {
		t.Error("expected error for missing domain")
	}
}

func TestValidate_DomainNormalization(t *testing.T) {
	cfg := validConfig()
	cfg.Domain = "Example.COM."
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Domain != "example.com" {
		t.Errorf("expected lowercased domain without trailing dot, got %s", cfg.Domain)
	}
}

func TestValidate_InvalidDomain(t *testing.T) {
	for _, domain := range []string{"not a domain", "example", "-bad.com", "http://example.com"} {
		cfg := validConfig()
		cfg.Domain = domain
		if err := Validate(cfg); err == nil {
			t.Errorf("expected error for domain %q", domain)
		}
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Providers = []string{"s3", "dropbox"}
	if err := Validate(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestValidate_NoProviders(t *testing.T) {
	cfg := validConfig()
	cfg.Providers = nil
	if err := Validate(cfg); err == nil {
		t.Error("expected error for empty provider list")
	}
}

func TestValidate_SubdomainFileNotFound(t *testing.T) {
	cfg := validConfig()
	cfg.SubdomainsFile = "/nonexistent/path/subs.txt"
	if err := Validate(cfg); err == nil {
		t.Error("expected error for nonexistent subdomain file")
	}
}

func TestValidate_SubdomainFileExists(t *testing.T) {
	f, err := os.CreateTemp("", "subs-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.Close()

	cfg := validConfig()
	cfg.SubdomainsFile = f.Name()
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidConcurrency(t *testing.T) {
	cfg := validConfig()
	cfg.Concurrency = -1
	if err := Validate(cfg); err == nil {
		t.Error("expected error for negative concurrency")
	}
}

func TestValidate_InvalidTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Timeout = 0
	if err := Validate(cfg); err == nil {
		t.Error("expected error for zero timeout")
	}
}

func TestValidate_NegativeRetries(t *testing.T) {
	cfg := validConfig()
	cfg.RetryAttempts = -1
	if err := Validate(cfg); err == nil {
		t.Error("expected error for negative retries")
	}
}

func TestValidate_ZeroRetriesAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.RetryAttempts = 0
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidMaxResponseSize(t *testing.T) {
	for _, mb := range []int{0, -5} {
		cfg := validConfig()
		cfg.MaxResponseMB = mb
		if err := Validate(cfg); err == nil {
			t.Errorf("expected error for max response size %d", mb)
		}
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "invalid"
	if err := Validate(cfg); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList("S3, gcs ,,azure")
	want := []string{"s3", "gcs", "azure"}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	if splitList("") != nil {
		t.Error("expected nil for empty input")
	}
}

func TestEnvOrDefault(t *testing.T) {
	if got := envOrDefault("NONEXISTENT_VAR_12345", 42); got != 42 {
		t.Errorf("expected default 42, got %d", got)
	}

	t.Setenv("BUCKETSCAN_TEST_INT", "7")
	if got := envOrDefault("BUCKETSCAN_TEST_INT", 42); got != 7 {
		t.Errorf("expected 7 from env, got %d", got)
	}
}

func TestEnvOrDefaultStr(t *testing.T) {
	if got := envOrDefaultStr("NONEXISTENT_VAR_12345", "default"); got != "default" {
		t.Errorf("expected 'default', got %q", got)
	}
}
