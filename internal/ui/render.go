package ui

import (
	"fmt"
	"strings"

	"github.com/mkrenz/doseview/internal/compare"
)

// RenderResult renders all four comparison tables as styled text for
// non-interactive output.
func RenderResult(r compare.Result) string {
	styles := newStyles()

	var b strings.Builder
	for i, table := range []compare.Table{r.Basal, r.CarbRatio, r.Sensitivity, r.Target} {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderTable(table, styles))
	}
	return b.String()
}

func renderTable(t compare.Table, styles *Styles) string {
	var b strings.Builder

	b.WriteString(styles.Subtitle.Render(fmt.Sprintf("%s (%s)", t.Title, t.Unit)))
	b.WriteString("\n")

	w1, w2 := columnWidths(t)
	b.WriteString(styles.Label.Render(fmt.Sprintf("  %-8s %*s %*s", "Time", w1, t.Name1, w2, t.Name2)))
	b.WriteString("\n")

	for _, row := range t.Rows {
		line := fmt.Sprintf("  %-8s %*s %*s", row.Time, w1, row.Value1, w2, row.Value2)
		if row.Time == compare.TotalLabel {
			b.WriteString(styles.RowTotal.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func columnWidths(t compare.Table) (int, int) {
	w1, w2 := len(t.Name1), len(t.Name2)
	for _, row := range t.Rows {
		if len(row.Value1) > w1 {
			w1 = len(row.Value1)
		}
		if len(row.Value2) > w2 {
			w2 = len(row.Value2)
		}
	}
	return w1, w2
}
