package tui

import (
	"fmt"
	"strings"

	"github.com/san-kum/tribofit/internal/calib"
	"github.com/san-kum/tribofit/internal/params"
)

// FitReport renders a styled summary of a calibration result: the fitted
// parameters with standard errors and the solver diagnostics.
func FitReport(res *calib.Result) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("fit: %s", res.Model.Kind())))
	b.WriteString("\n\n")

	names := params.Names(res.Model)
	values := params.Encode(res.Model)
	for i, name := range names {
		line := fmt.Sprintf("%-24s %s", LabelStyle.Render(name), ValueStyle.Render(fmt.Sprintf("%.6g", values[i])))
		if res.Diagnostics.StdErrors != nil {
			line += LabelStyle.Render(fmt.Sprintf("  ± %.3g", res.Diagnostics.StdErrors[i]))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	d := res.Diagnostics
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("cost (SSR)"), ValueStyle.Render(fmt.Sprintf("%.6g", d.Cost))))
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("rms"), ValueStyle.Render(fmt.Sprintf("%.6g", d.RMS))))
	b.WriteString(fmt.Sprintf("%s %d iterations, %d evaluations\n", LabelStyle.Render("effort"), d.Iterations, d.Evaluations))

	if d.Converged {
		b.WriteString(OKStyle.Render("converged: " + d.Status))
	} else {
		b.WriteString(WarnStyle.Render("not converged: " + d.Status))
	}
	b.WriteString("\n")
	for _, w := range d.Warnings {
		b.WriteString(WarnStyle.Render("warning: " + w))
		b.WriteString("\n")
	}

	return PanelStyle.Render(b.String())
}
