// Package templates holds the HTML components of the operations pages.
package templates

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/warehouse/internal/core"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;width:100%}th,td{padding:.4rem .6rem;border-bottom:1px solid #e5e7eb;text-align:left}
.succeeded{color:#047857}.failed{color:#b91c1c}.alert{border:1px solid #fca5a5;background:#fef2f2;padding:1rem;border-radius:.25rem}
.muted{color:#6b7280}`

// Page wraps body in the shared HTML document.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title><style>%s</style></head><body><h1>%s</h1>`,
			templ.EscapeString(title), pageStyle, templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// RunReport renders the per-entity results of one run.
func RunReport(s *core.RunSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		status := "succeeded"
		if !s.Succeeded() {
			status = "failed"
		}
		if _, err := fmt.Fprintf(w,
			`<p>Run <code>%s</code> started %s, took %s. <span class="%s">%d of %d entities failed</span>, %d rows written.</p>`,
			templ.EscapeString(s.RunID),
			templ.EscapeString(s.StartedAt.UTC().Format(time.RFC3339)),
			templ.EscapeString(s.Duration.Round(time.Millisecond).String()),
			status, s.ErrorCount(), len(s.Results), s.RowsWritten()); err != nil {
			return err
		}

		if _, err := io.WriteString(w,
			`<table><thead><tr><th>Entity</th><th>Status</th><th>Rows read</th><th>Rows written</th><th>Duration</th><th>Error</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, r := range s.Results {
			if _, err := fmt.Fprintf(w,
				`<tr><td>%s</td><td class="%s">%s</td><td>%d</td><td>%d</td><td>%s</td><td>%s</td></tr>`,
				templ.EscapeString(r.Entity),
				templ.EscapeString(string(r.Status)), templ.EscapeString(string(r.Status)),
				r.RowsRead, r.RowsWritten,
				templ.EscapeString(r.Duration.Round(time.Millisecond).String()),
				templ.EscapeString(errorText(r))); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

func errorText(r core.LoadResult) string {
	if r.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s [%s]", r.ErrorMessage(), core.ErrorCode(r.Err))
}

// NoRuns renders the empty state.
func NoRuns() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<p class="muted">No pipeline runs recorded yet.</p>`)
		return err
	})
}

// ErrorAlert renders an operator-facing error.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert" role="alert"><strong>%s</strong> <span class="muted">(%s)</span><p>%s</p></div>`,
			templ.EscapeString(message), templ.EscapeString(code), templ.EscapeString(action))
		return err
	})
}
