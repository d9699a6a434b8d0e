// Package narrative renders a strategy into a markdown brief without any
// external service. It is the fallback when no generative provider answers.
package narrative

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"campaignintel/domain/strategy"
	"campaignintel/ports"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TemplateName identifies the template narrator in logs and responses.
const TemplateName = "template"

// TemplateNarrator implements ports.NarrativeGenerator with a text template.
type TemplateNarrator struct {
	tmpl *template.Template
}

var _ ports.NarrativeGenerator = (*TemplateNarrator)(nil)

// NewTemplateNarrator parses the embedded brief template.
func NewTemplateNarrator() (*TemplateNarrator, error) {
	funcMap := template.FuncMap{
		"pct":  func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" },
		"num":  formatInt,
		"join": strings.Join,
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse narrative templates: %w", err)
	}
	return &TemplateNarrator{tmpl: tmpl}, nil
}

func (n *TemplateNarrator) Name() string { return TemplateName }

// Generate renders the brief. Only ctx cancellation can fail it once the
// template has parsed.
func (n *TemplateNarrator) Generate(ctx context.Context, ws *strategy.WinningStrategy) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := n.tmpl.ExecuteTemplate(&buf, "brief.md.tmpl", ws); err != nil {
		return "", fmt.Errorf("render brief for %s: %w", ws.ConstituencyID, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

// formatInt groups thousands with commas.
func formatInt(v interface{}) string {
	switch x := v.(type) {
	case int:
		return humanize.Comma(int64(x))
	case int64:
		return humanize.Comma(x)
	default:
		return fmt.Sprint(v)
	}
}
