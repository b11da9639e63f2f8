package report

import (
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/ShadowStrikeHQ/tsd-publicbucketscanner/internal/probe"
)

func SaveHTML(r *Report, filename string) error {
	htmlTemplate := `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Bucket Scan Report</title>
	<style>
		* { margin: 0; padding: 0; box-sizing: border-box; }
		body {
			font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
			background: #f5f5f5;
			padding: 20px;
			color: #333;
		}
		.container { max-width: 1400px; margin: 0 auto; background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
		h1 { font-size: 24px; margin-bottom: 10px; color: #222; }
		.meta { color: #666; font-size: 14px; margin-bottom: 30px; }
		.stats {
			display: grid;
			grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
			gap: 15px;
			margin-bottom: 30px;
		}
		.stat-card { background: #f9f9f9; padding: 15px; border-radius: 6px; border-left: 3px solid #007bff; }
		.stat-value { font-size: 24px; font-weight: bold; color: #007bff; }
		.stat-label { font-size: 12px; color: #666; margin-top: 5px; }
		.search-box { margin-bottom: 20px; }
		#searchInput {
			width: 100%%;
			padding: 12px;
			font-size: 14px;
			border: 1px solid #ddd;
			border-radius: 6px;
		}
		table { width: 100%%; border-collapse: collapse; font-size: 14px; }
		th { background: #f0f0f0; padding: 12px; text-align: left; font-weight: 600; border-bottom: 2px solid #ddd; }
		td { padding: 10px 12px; border-bottom: 1px solid #eee; }
		tr:hover { background: #f9f9f9; }
		.badge {
			display: inline-block;
			padding: 3px 8px;
			border-radius: 4px;
			font-size: 11px;
			font-weight: 600;
		}
		.badge-readable { background: #dc3545; color: white; }
		.badge-listable { background: #fd7e14; color: white; }
		.badge-private { background: #6c757d; color: white; }
		.badge-forbidden { background: #ffc107; color: #333; }
		.badge-default { background: #17a2b8; color: white; }
		code { background: #f4f4f4; padding: 2px 6px; border-radius: 3px; font-family: monospace; font-size: 13px; }
	</style>
</head>
<body>
	<div class="container">
		<h1>Bucket Scan Report</h1>
		<div class="meta">Target: <code>%s</code> &middot; Run %s &middot; Generated: %s</div>

		<div class="stats">
			<div class="stat-card">
				<div class="stat-value">%d</div>
				<div class="stat-label">Total Findings</div>
			</div>
			<div class="stat-card">
				<div class="stat-value">%d</div>
				<div class="stat-label">Readable</div>
			</div>
			<div class="stat-card">
				<div class="stat-value">%d</div>
				<div class="stat-label">Listable</div>
			</div>
			<div class="stat-card">
				<div class="stat-value">%d</div>
				<div class="stat-label">Private</div>
			</div>
		</div>

		<div class="search-box">
			<input type="text" id="searchInput" placeholder="Search findings...">
		</div>

		<table id="resultsTable">
			<thead>
				<tr>
					<th>Access</th>
					<th>Bucket</th>
					<th>Provider</th>
					<th>Status</th>
					<th>Detail</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>
	</div>

	<script>
		document.getElementById('searchInput').addEventListener('input', function(e) {
			const searchTerm = e.target.value.toLowerCase();
			const rows = document.querySelectorAll('#resultsTable tbody tr');

			rows.forEach(row => {
				const text = row.textContent.toLowerCase();
				row.style.display = text.includes(searchTerm) ? '' : 'none';
			});
		});
	</script>
</body>
</html>`

	var tableRows strings.Builder
	countReadable := 0
	countListable := 0
	countPrivate := 0

	for _, f := range r.Findings {
		badgeClass := "badge-default"
		switch f.Access {
		case probe.AccessReadable:
			badgeClass = "badge-readable"
			countReadable++
		case probe.AccessListable:
			badgeClass = "badge-listable"
			countListable++
		case probe.AccessPrivate:
			badgeClass = "badge-private"
			countPrivate++
		case probe.AccessForbidden:
			badgeClass = "badge-forbidden"
		}

		tableRows.WriteString(fmt.Sprintf(`
				<tr>
					<td><span class="badge %s">%s</span></td>
					<td><code>%s</code></td>
					<td>%s</td>
					<td>%d</td>
					<td>%s</td>
				</tr>`,
			badgeClass, f.Access.String(),
			html.EscapeString(f.Candidate.Name),
			html.EscapeString(string(f.Provider)),
			f.HTTPStatus,
			html.EscapeString(f.Detail)))
	}

	finalHTML := fmt.Sprintf(htmlTemplate,
		html.EscapeString(r.Target),
		html.EscapeString(r.RunID),
		r.GeneratedAt,
		r.TotalFindings,
		countReadable,
		countListable,
		countPrivate,
		tableRows.String())

	return os.WriteFile(filename, []byte(finalHTML), 0644)
}
