// Package templates renders the HTML views as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const styles = `
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 56rem; padding: 0 1rem; color: #1f2937; }
h1 { font-size: 1.5rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { border: 1px solid #e5e7eb; padding: .4rem .6rem; text-align: left; }
th { background: #f9fafb; }
.badge { display: inline-block; padding: .15rem .6rem; border-radius: 9999px; font-weight: 600; }
.pass { background: #dcfce7; color: #166534; }
.fail { background: #fee2e2; color: #991b1b; }
.alert { border: 1px solid #fecaca; background: #fef2f2; padding: .75rem 1rem; border-radius: .375rem; }
.muted { color: #6b7280; font-size: .875rem; }
`

// htmlWriter writes formatted HTML and keeps the first write error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) printf(format string, args ...any) {
	if hw.err != nil {
		return
	}
	_, hw.err = fmt.Fprintf(hw.w, format, args...)
}

func (hw *htmlWriter) render(ctx context.Context, c templ.Component) {
	if hw.err != nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

// esc escapes text for HTML output.
func esc(s string) string {
	return templ.EscapeString(s)
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.printf(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.printf(`<title>%s</title><style>%s</style></head><body>`, esc(title), styles)
		hw.render(ctx, body)
		hw.printf(`</body></html>`)
		return hw.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.printf(`<div class="alert" role="alert"><strong>%s</strong>`, esc(message))
		if action != "" {
			hw.printf(`<p>%s</p>`, esc(action))
		}
		hw.printf(`<p class="muted">Code: %s</p></div>`, esc(code))
		return hw.err
	})
}

// ErrorPage renders ErrorAlert as a full page.
func ErrorPage(message, action, code string) templ.Component {
	return Layout("Error", ErrorAlert(message, action, code))
}
