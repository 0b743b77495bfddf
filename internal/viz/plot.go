package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/sysdyn/internal/dynamo"
)

var plotColors = []asciigraph.AnsiColor{
	asciigraph.Green,
	asciigraph.DeepSkyBlue,
	asciigraph.Tomato,
	asciigraph.Gold,
	asciigraph.Orchid,
	asciigraph.Aquamarine,
}

var (
	plotTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	plotLegendStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Plot renders the named series of a finished run as one shared chart.
// Names absent from the run are skipped.
func Plot(result *dynamo.Result, names []string, width, height int) (string, error) {
	var data [][]float64
	var found []string
	var colors []asciigraph.AnsiColor
	for _, name := range names {
		series, ok := result.Series(name)
		if !ok {
			continue
		}
		colors = append(colors, plotColors[len(found)%len(plotColors)])
		data = append(data, series)
		found = append(found, name)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("viz: no matching series")
	}

	chart := asciigraph.PlotMany(data,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.SeriesColors(colors...),
	)

	var sb strings.Builder
	sb.WriteString(chart)
	sb.WriteString("\n\n")
	legend := make([]string, len(found))
	for i, name := range found {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(ansiName(colors[i]))).Render("──")
		legend[i] = swatch + " " + plotLegendStyle.Render(name)
	}
	sb.WriteString(strings.Join(legend, "   "))
	return sb.String(), nil
}

// Summary renders a one-line final-value readout per variable.
func Summary(result *dynamo.Result) string {
	if len(result.Snapshots) == 0 {
		return plotLegendStyle.Render("(no snapshots)")
	}
	last := result.Snapshots[len(result.Snapshots)-1]
	var sb strings.Builder
	sb.WriteString(plotTitleStyle.Render(fmt.Sprintf("t = %.4g", last.Time())) + "\n")
	for i, name := range result.Names {
		sb.WriteString(fmt.Sprintf("  %-24s %12.6g\n", name, last.At(i)))
	}
	return sb.String()
}

func ansiName(c asciigraph.AnsiColor) string {
	switch c {
	case asciigraph.Green:
		return "2"
	case asciigraph.DeepSkyBlue:
		return "39"
	case asciigraph.Tomato:
		return "203"
	case asciigraph.Gold:
		return "220"
	case asciigraph.Orchid:
		return "170"
	case asciigraph.Aquamarine:
		return "122"
	}
	return "252"
}
