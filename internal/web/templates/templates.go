// Package templates holds the HTMX partials returned to the upload page.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/catalogio/internal/core"
)

// ErrorAlert renders a dismissible error box with the user message, the
// suggested action and the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="alert alert-error" role="alert"><p class="alert-message">`+
			templ.EscapeString(message)+`</p>`); err != nil {
			return err
		}
		if action != "" {
			if _, err := io.WriteString(w, `<p class="alert-action">`+templ.EscapeString(action)+`</p>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `<p class="alert-code">Code: `+templ.EscapeString(code)+`</p></div>`)
		return err
	})
}

// maxListedErrors caps the row errors shown in the summary panel.
const maxListedErrors = 20

// ImportSummary renders the final counts of an import and its first row errors.
func ImportSummary(result *core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		status := "complete"
		if result.Failed() {
			status = "failed"
		}

		if _, err := fmt.Fprintf(w,
			`<section class="import-summary import-%s" data-import-id="%s"><h3>%s</h3><dl>`+
				`<dt>Format</dt><dd>%s</dd>`+
				`<dt>Rows</dt><dd>%d</dd>`+
				`<dt>Imported</dt><dd>%d</dd>`+
				`<dt>Skipped</dt><dd>%d</dd>`+
				`<dt>Failed</dt><dd>%d</dd></dl>`,
			status,
			templ.EscapeString(result.ImportID),
			templ.EscapeString(result.FileName),
			templ.EscapeString(string(result.Format)),
			result.TotalRows,
			result.SuccessCount,
			result.SkippedCount,
			len(result.Errors),
		); err != nil {
			return err
		}

		if result.Failed() {
			msg := core.MapError(fmt.Errorf("%s", result.Error))
			if err := ErrorAlert(msg.Message, msg.Action, msg.Code).Render(ctx, w); err != nil {
				return err
			}
		}

		if len(result.Errors) > 0 {
			if _, err := io.WriteString(w, `<ul class="import-errors">`); err != nil {
				return err
			}
			for i, e := range result.Errors {
				if i == maxListedErrors {
					if _, err := fmt.Fprintf(w, `<li class="more">and %d more</li>`, len(result.Errors)-i); err != nil {
						return err
					}
					break
				}
				if _, err := io.WriteString(w, `<li>`+templ.EscapeString(e)+`</li>`); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ul>`); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</section>`)
		return err
	})
}
