package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/config"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/probe"
	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/scanner"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	white   = color.New(color.FgWhite).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()

	badgeReadable = color.New(color.BgRed, color.FgWhite, color.Bold).SprintFunc()
	badgeListable = color.New(color.BgYellow, color.FgBlack, color.Bold).SprintFunc()
	badgePrivate  = color.New(color.BgBlue, color.FgWhite, color.Bold).SprintFunc()
	badgeOther    = color.New(color.BgCyan, color.FgBlack, color.Bold).SprintFunc()
)

func PrintBanner() {
	fmt.Println()
	fmt.Println(bold(red("   ╔═══════════════════════════════════════════╗")))
	fmt.Println(bold(red("   ║                                           ║")))
	fmt.Printf("   %s   🪣  %s  v1.0              %s\n", bold(red("║")), bold(white("PUBLIC BUCKET SCANNER")), bold(red("║")))
	fmt.Printf("   %s   Cloud Storage Exposure Probe            %s\n", bold(red("║")), bold(red("║")))
	fmt.Println(bold(red("   ║                                           ║")))
	fmt.Println(bold(red("   ╚═══════════════════════════════════════════╝")))
	fmt.Println()
}

func PrintConfig(cfg config.Config, candidateCount int) {
	fmt.Printf("\n%s\n", bold(cyan(" ⚙  Scan Configuration")))
	fmt.Println(dim("─────────────────────────────"))
	fmt.Printf("  %s      %s\n", dim("Domain"), white(cfg.Domain))
	fmt.Printf("  %s  %s\n", dim("Candidates"), white(fmt.Sprintf("%d", candidateCount)))
	fmt.Printf("  %s   %s\n", dim("Providers"), white(strings.Join(cfg.Providers, ", ")))
	fmt.Printf("  %s     %s\n", dim("Workers"), white(fmt.Sprintf("%d", cfg.Concurrency)))
	fmt.Printf("  %s     %s\n", dim("Timeout"), white(fmt.Sprintf("%ds", cfg.Timeout)))
	if cfg.RateLimit > 0 {
		fmt.Printf("  %s  %s\n", dim("Rate Limit"), white(fmt.Sprintf("%d req/s per provider", cfg.RateLimit)))
	}
	if cfg.SubdomainsFile != "" {
		fmt.Printf("  %s  %s\n", dim("Subdomains"), white(cfg.SubdomainsFile))
	}
	if cfg.StrictErrors {
		fmt.Printf("  %s        %s\n", dim("Mode"), bold(yellow("Strict Errors")))
	}
	fmt.Println()
}

func PrintResult(out probe.Outcome) {
	var badge string
	switch out.Access {
	case probe.AccessReadable:
		badge = badgeReadable(" READABLE ")
	case probe.AccessListable:
		badge = badgeListable(" LISTABLE ")
	case probe.AccessPrivate:
		badge = badgePrivate(" PRIVATE ")
	default:
		badge = badgeOther(fmt.Sprintf(" %s ", strings.ToUpper(out.Access.String())))
	}

	detail := ""
	if out.Detail != "" {
		detail = "  " + dim(out.Detail)
	}

	fmt.Printf(" %s  %s  %s%s\n",
		badge,
		magenta(fmt.Sprintf("%-5s", out.Provider)),
		white(out.Candidate.Name),
		detail)
}

func StartProgressReporter(ctx context.Context, stats *scanner.Stats) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := 0

	for {
		select {
		case <-ctx.Done():
			fmt.Print("\r\033[K")
			return
		case <-ticker.C:
			elapsed := time.Since(stats.StartTime).Seconds()
			if elapsed == 0 {
				elapsed = 1
			}
			reqPerSec := float64(stats.GetProcessed()) / elapsed
			total := stats.GetTotal()
			processed := stats.GetProcessed()
			var progress float64
			if total > 0 {
				progress = float64(processed) / float64(total) * 100
			}

			barWidth := 20
			filled := int(progress / 100 * float64(barWidth))
			if filled > barWidth {
				filled = barWidth
			}
			bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

			s := spinner[frame%len(spinner)]
			frame++

			errStr := ""
			if errors := stats.GetErrors(); errors > 0 {
				errStr = fmt.Sprintf("  %s", red(fmt.Sprintf("✗ %d", errors)))
			}

			fmt.Printf("\r  %s %s %s  %s probe/s  Found: %s%s",
				cyan(s),
				dim(bar),
				bold(fmt.Sprintf("%.0f%%", progress)),
				dim(fmt.Sprintf("%d", int(reqPerSec))),
				green(fmt.Sprintf("%d", stats.GetFound())),
				errStr)
		}
	}
}

func PrintSummary(stats *scanner.Stats) {
	elapsed := time.Since(stats.StartTime)
	reqPerSec := float64(stats.GetProcessed()) / elapsed.Seconds()

	fmt.Println()
	fmt.Printf("\n%s\n", bold(green(" ✔  Scan Complete")))
	fmt.Println(dim("─────────────────────────────"))
	fmt.Printf("  %s      %s\n", dim("Probes"), white(fmt.Sprintf("%d", stats.GetProcessed())))
	fmt.Printf("  %s    %s\n", dim("Exposed"), bold(green(fmt.Sprintf("%d", stats.GetFound()))))
	if stats.GetErrors() > 0 {
		fmt.Printf("  %s     %s\n", dim("Errors"), bold(red(fmt.Sprintf("%d", stats.GetErrors()))))
	}
	fmt.Printf("  %s    %s\n", dim("Duration"), white(elapsed.Round(time.Millisecond).String()))
	fmt.Printf("  %s       %s\n", dim("Speed"), white(fmt.Sprintf("%.0f probe/s", reqPerSec)))
	fmt.Println()
}
