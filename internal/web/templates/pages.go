package templates

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvcheck/internal/core"
	"github.com/a-h/templ"
)

// UploadPageParams describes what the upload form tells the user.
type UploadPageParams struct {
	RequiredColumns []string
	RowThreshold    int
	MinAge          float64
	MaxAge          float64
	MaxFileSize     int64
}

// UploadPage renders the upload form.
func UploadPage(p UploadPageParams) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<h1>Validate a CSV file</h1>`)
		hw.printf(`<p>Required columns: <code>%s</code></p>`, esc(strings.Join(p.RequiredColumns, ", ")))
		hw.printf(`<ul><li>more than %d data rows</li>`, p.RowThreshold)
		hw.printf(`<li>email must not be empty</li>`)
		hw.printf(`<li>age must be a number from %s to %s</li></ul>`, formatNumber(p.MinAge), formatNumber(p.MaxAge))
		hw.printf(`<form action="/validate" method="post" enctype="multipart/form-data">`)
		hw.printf(`<input type="file" name="file" accept=".csv,text/csv" required> `)
		hw.printf(`<button type="submit">Validate</button></form>`)
		hw.printf(`<p class="muted">Maximum file size: %s</p>`, esc(formatBytes(p.MaxFileSize)))
		hw.printf(`<p class="muted"><a href="/api/runs">Recent runs (JSON)</a></p>`)
		return hw.err
	})
	return Layout("CSV validation", body)
}

// ReportViewParams is the data for the HTML report.
type ReportViewParams struct {
	RunID    string
	FileName string
	Report   core.Report
}

// ReportView renders a validation report.
func ReportView(p ReportViewParams) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}

		title := "Validation report"
		if p.FileName != "" {
			title += ": " + p.FileName
		}
		hw.printf(`<h1>%s</h1>`, esc(title))

		status := string(p.Report.Status)
		hw.printf(`<p><span class="badge %s">%s</span> %d error(s)</p>`,
			esc(status), esc(strings.ToUpper(status)), len(p.Report.Errors))
		if p.RunID != "" {
			hw.printf(`<p class="muted">Run %s</p>`, esc(p.RunID))
		}

		if len(p.Report.Errors) > 0 {
			hw.printf(`<table><thead><tr><th>Row</th><th>ID</th><th>Column</th><th>Error</th></tr></thead><tbody>`)
			for _, v := range p.Report.Errors {
				row, id := "", ""
				if !v.FileLevel() {
					row = strconv.Itoa(v.RowIndex)
				}
				if v.ID != nil {
					id = *v.ID
				}
				hw.printf(`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
					row, esc(id), esc(v.Column), esc(v.Message))
			}
			hw.printf(`</tbody></table>`)
		}

		hw.printf(`<p><a href="/">Validate another file</a></p>`)
		return hw.err
	})
	return Layout("Validation report", body)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatBytes renders n using binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	value := strconv.FormatFloat(float64(n)/float64(div), 'f', 1, 64)
	value = strings.TrimSuffix(value, ".0")
	return value + " " + string("KMGTPE"[exp]) + "iB"
}
