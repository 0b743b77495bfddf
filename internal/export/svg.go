package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/san-kum/sysdyn/internal/dynamo"
)

var strokeColors = []string{
	"#00ff00", "#00bfff", "#ff6347", "#ffd700", "#da70d6", "#7fffd4",
}

// WriteSVG renders the named series as line charts over time on a shared
// axis, with a small legend. Names absent from the result are skipped.
func WriteSVG(w io.Writer, result *dynamo.Result, names []string, width, height int) error {
	times := result.Times
	if len(times) < 2 {
		return fmt.Errorf("export: need at least 2 snapshots for a chart")
	}

	type line struct {
		name   string
		values []float64
	}
	var lines []line
	for _, name := range names {
		if values, ok := result.Series(name); ok {
			lines = append(lines, line{name, values})
		}
	}
	if len(lines) == 0 {
		return fmt.Errorf("export: no matching series")
	}

	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := lines[0].values[0], lines[0].values[0]
	for _, l := range lines {
		for _, v := range l.values {
			if v < minY {
				minY = v
			}
			if v > maxY {
				maxY = v
			}
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for li, l := range lines {
		color := strokeColors[li%len(strokeColors)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color))
		for i, v := range l.values {
			x := (times[i] - minX) / rangeX * float64(width)
			y := float64(height) - (v-minY)/rangeY*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	for li, l := range lines {
		color := strokeColors[li%len(strokeColors)]
		y := 16 + li*16
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, y, color, l.name))
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func SVGFile(path string, result *dynamo.Result, names []string, width, height int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteSVG(file, result, names, width, height)
}
