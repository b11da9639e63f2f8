package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/config"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/mutate"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/probe"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/report"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/scanner"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/transport"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/ui"
)

func main() {
	ui.PrintBanner()

	cfg := config.Parse()

	if err := config.Validate(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)

	var subdomains []string
	if cfg.SubdomainsFile != "" {
		var err error
		subdomains, err = mutate.LoadSubdomains(cfg.SubdomainsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read subdomains: %s\n", err)
			os.Exit(1)
		}
		log.Debugf("loaded %d subdomain labels from %s", len(subdomains), cfg.SubdomainsFile)
	}

	var templates []string
	if cfg.TemplatesFile != "" {
		var err error
		templates, err = mutate.LoadTemplates(cfg.TemplatesFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read templates: %s\n", err)
			os.Exit(1)
		}
	}

	candidates := mutate.Generate(cfg.Domain, subdomains, templates)
	if len(candidates) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no valid candidate names could be generated")
		os.Exit(1)
	}

	ui.PrintConfig(cfg, len(candidates))

	client := transport.NewClient(cfg.Timeout, cfg.RateLimit, cfg.RetryAttempts, cfg.MaxResponseMB)
	probes := buildProbes(cfg, client)

	sched := scanner.New(cfg.Concurrency, probes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\n[!] Received signal %s, shutting down gracefully...\n", sig)
		cancel()
	}()

	fmt.Println("Starting scan...")

	progressCtx, stopProgress := context.WithCancel(context.Background())
	go ui.StartProgressReporter(progressCtx, sched.Stats())

	outcomes, stats, err := sched.Run(ctx, candidates)
	stopProgress()

	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "[!] Scan cancelled, reporting partial results")
		} else {
			fmt.Fprintf(os.Stderr, "Scan error: %s\n", err)
			os.Exit(1)
		}
	}

	minLevel := probe.AccessListable
	if cfg.ShowAll {
		minLevel = probe.AccessError
	}
	rep := report.Aggregate(cfg.Domain, outcomes, minLevel)

	for _, finding := range rep.Findings {
		ui.PrintResult(finding)
	}

	ui.PrintSummary(stats)

	if cfg.OutputFile != "" {
		if err := report.SaveJSON(rep, cfg.OutputFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save JSON: %s\n", err)
		} else {
			fmt.Printf("\nJSON report saved: %s\n", cfg.OutputFile)
		}
	}

	if cfg.CSVFile != "" {
		if err := report.SaveCSV(rep, cfg.CSVFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save CSV: %s\n", err)
		} else {
			fmt.Printf("CSV report saved: %s\n", cfg.CSVFile)
		}
	}

	if cfg.HTMLFile != "" {
		if err := report.SaveHTML(rep, cfg.HTMLFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate HTML: %s\n", err)
		} else {
			fmt.Printf("HTML report saved: %s\n", cfg.HTMLFile)
		}
	}
}

func setupLogging(level string) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: false, FullTimestamp: true})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

func buildProbes(cfg config.Config, client *transport.Client) []probe.Prober {
	var probes []probe.Prober
	for _, p := range cfg.Providers {
		switch p {
		case "s3":
			probes = append(probes, probe.NewS3Probe(client, cfg.StrictErrors))
		case "gcs":
			probes = append(probes, probe.NewGCSProbe(client, cfg.StrictErrors))
		case "azure":
			containers := probe.DefaultContainers()
			if len(cfg.Containers) > 0 {
				containers = append(containers, cfg.Containers...)
			}
			probes = append(probes, probe.NewAzureProbe(client, containers, cfg.StrictErrors))
		}
	}
	return probes
}
