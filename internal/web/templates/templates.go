// Package templates holds the HTML views as templ components. They are
// written against templ's runtime directly so no generate step is needed.
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvrules/internal/service"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;font-size:.875rem}
th,td{border:1px solid #d1d5db;padding:.25rem .5rem;text-align:left;vertical-align:top}
th{background:#f3f4f6}
.alert{border:1px solid #fca5a5;background:#fef2f2;padding:.75rem;border-radius:.25rem}
.muted{color:#6b7280}`

// Page wraps body in the HTML document shell.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), pageStyle); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// ParserIndex lists parsers grouped by their catalog group.
func ParserIndex(parsers []service.ParserInfo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<h1>Parsers</h1>"); err != nil {
			return err
		}
		if len(parsers) == 0 {
			_, err := io.WriteString(w, `<p class="muted">No parsers registered.</p>`)
			return err
		}

		group := ""
		open := false
		for _, p := range parsers {
			if !open || p.Group != group {
				if open {
					if _, err := io.WriteString(w, "</ul>"); err != nil {
						return err
					}
				}
				group, open = p.Group, true
				if _, err := fmt.Fprintf(w, "<h2>%s</h2><ul>", templ.EscapeString(orDash(group))); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, `<li><strong>%s</strong> <code>%s</code> <span class="muted">%d rules, %s</span>`,
				templ.EscapeString(p.Label), templ.EscapeString(p.Name), p.RuleCount, templ.EscapeString(p.Source)); err != nil {
				return err
			}
			if p.Description != "" {
				if _, err := fmt.Fprintf(w, "<br>%s", templ.EscapeString(p.Description)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "</li>"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</ul>")
		return err
	})
}

// PreviewTable renders parsed rows with one column per result key.
func PreviewTable(res *service.Result) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		keys := resultKeys(res)

		if _, err := fmt.Fprintf(w, `<p class="muted">%s: %d rows shown, %d read, %d dropped cells`,
			templ.EscapeString(res.Parser), len(res.Rows), res.RowsRead, res.DroppedCells); err != nil {
			return err
		}
		if res.Truncated {
			if _, err := io.WriteString(w, " (truncated)"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</p><table><thead><tr><th>#</th>"); err != nil {
			return err
		}
		for _, k := range keys {
			if _, err := fmt.Fprintf(w, "<th>%s</th>", templ.EscapeString(k)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</tr></thead><tbody>"); err != nil {
			return err
		}
		for i, row := range res.Rows {
			if _, err := fmt.Fprintf(w, "<tr><td>%d</td>", i+1); err != nil {
				return err
			}
			for _, k := range keys {
				v, ok := row[k]
				cell := ""
				if ok {
					cell = FormatValue(v)
				}
				if _, err := fmt.Fprintf(w, "<td>%s</td>", templ.EscapeString(cell)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "</tr>"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</tbody></table>")
		return err
	})
}

// ErrorAlert renders a user message as an alert box.
func ErrorAlert(msg service.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert" role="alert"><strong>%s</strong><p>%s</p><small>Code: %s</small></div>`,
			templ.EscapeString(msg.Message), templ.EscapeString(msg.Action), templ.EscapeString(msg.Code))
		return err
	})
}

// resultKeys returns the union of top-level keys across rows, sorted.
func resultKeys(res *service.Result) []string {
	seen := make(map[string]struct{})
	for _, row := range res.Rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// FormatValue renders strings as-is and anything else as JSON.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
