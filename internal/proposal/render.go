package proposal

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/manifest-network/upgrade-helper/internal/models"
	"github.com/manifest-network/upgrade-helper/internal/utils"
)

//go:embed templates/proposal.md.tmpl
var templates embed.FS

// Renderer turns an assembled document into its published text.
type Renderer interface {
	Render(doc models.ProposalDocument) (string, error)
}

// MarkdownRenderer fills the embedded proposal template.
type MarkdownRenderer struct {
	tmpl *template.Template
}

// NewMarkdownRenderer parses the embedded proposal template.
func NewMarkdownRenderer() (*MarkdownRenderer, error) {
	tmpl, err := template.New("proposal.md.tmpl").
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"number": utils.FormatNumber,
			"when":   utils.TimeString,
			"hours":  func(d time.Duration) int64 { return int64(d / time.Hour) },
		}).
		ParseFS(templates, "templates/proposal.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse proposal template: %w", err)
	}
	return &MarkdownRenderer{tmpl: tmpl}, nil
}

func (r *MarkdownRenderer) Render(doc models.ProposalDocument) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render proposal: %w", err)
	}
	return buf.String(), nil
}
