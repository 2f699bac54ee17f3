package intelligence

import (
	"fmt"
	"strings"

	intel "ninebox/domain/intelligence"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderMarkdown formats a report as a Markdown summary for people.
func RenderMarkdown(r *intel.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Rating intelligence report\n\n")
	fmt.Fprintf(&b, "- Report: `%s`\n", r.ID)
	fmt.Fprintf(&b, "- Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "- Employees: %d (population `%s`)\n", r.PopulationSize, r.PopulationHash.Short())
	fmt.Fprintf(&b, "- Rating axis: %s\n", r.Axis)
	fmt.Fprintf(&b, "- Quality score: **%d/100** (%d severe, %d moderate)\n\n",
		r.QualityScore, r.AnomalyCounts.Severe, r.AnomalyCounts.Moderate)

	if len(r.TopAnomalies) > 0 {
		b.WriteString("## Top anomalies\n\n")
		b.WriteString("| Source | Subject | Severity | p | V |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, a := range r.TopAnomalies {
			fmt.Fprintf(&b, "| %s | %s | %s | %.4g | %.2f |\n",
				a.Source, escapeCell(a.Subject), a.Severity, a.PValue, a.CramersV)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Dimensions\n\n")
	for _, dim := range intel.DimensionOrder {
		res, ok := r.Dimensions[dim]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", heading(dim), res.Summary)
		if res.SampleSizeWarning && !res.Failed() {
			b.WriteString("> Small groups or expected counts; read with care.\n\n")
		}
		for _, d := range res.Deviations {
			if d.Finding != "" {
				fmt.Fprintf(&b, "- %s\n", d.Finding)
			}
		}
		b.WriteString("\n")
	}

	if len(r.Managers) > 0 {
		b.WriteString("## Managers\n\n")
		b.WriteString("| Manager | Team | High rate | Rest | Status | Severity |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, m := range r.Managers {
			fmt.Fprintf(&b, "| %s | %d | %.1f%% | %.1f%% | %s | %s |\n",
				escapeCell(m.Manager), m.TeamSize, m.TeamHighRate*100, m.RestHighRate*100, m.Status, m.Severity)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderHTML converts the Markdown summary to an HTML fragment.
func RenderHTML(r *intel.Report) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(RenderMarkdown(r)))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.Render(doc, renderer)
}

func heading(d intel.Dimension) string {
	s := string(d)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
