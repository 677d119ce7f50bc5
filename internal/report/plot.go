package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/verte-zerg/chi2plookup/internal/model"
)

// Series is one sampled upper-tail curve.
type Series struct {
	Name   string
	Values []float64
}

type lineStyle struct {
	name   string
	period int
	on     int
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelTop        = "1.0"
	axisLabelMid        = "0.5"
	axisLabelBottom     = "0.0"
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "green", code: "\x1b[32m"},
	{name: "blue", code: "\x1b[34m"},
}

// TailSeries samples every table of set at width evenly spaced statistics
// between 0 and the largest cutoff. Points past a table's cutoff read as 0.
func TailSeries(set model.TableSet, width int) []Series {
	if width < 1 || set.Divisor <= 0 {
		return nil
	}
	xMax := float64(MaxCutoff(set.Cutoffs))
	series := make([]Series, 0, len(set.Arrays))
	for i, arr := range set.Arrays {
		cutoff := set.Cutoffs[i]
		values := make([]float64, width)
		for col := 0; col < width; col++ {
			x := 0.0
			if width > 1 {
				x = xMax * float64(col) / float64(width-1)
			}
			if x >= float64(cutoff) {
				continue
			}
			idx := int(float64(set.Divisor) * x)
			if idx >= len(arr.Values) {
				idx = len(arr.Values) - 1
			}
			values[col] = arr.Values[idx]
		}
		series = append(series, Series{Name: fmt.Sprintf("df=%d", arr.DegreesOfFreedom), Values: values})
	}
	return series
}

// MaxCutoff returns the largest cutoff in the table, or 0 when empty.
func MaxCutoff(cutoffs model.CutoffTable) int {
	maxCutoff := 0
	for _, c := range cutoffs {
		if c > maxCutoff {
			maxCutoff = c
		}
	}
	return maxCutoff
}

// PlotTails renders the tail curves of set on a shared probability axis.
func PlotTails(w io.Writer, set model.TableSet, width, height int, forceColor bool) error {
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}
	series := TailSeries(set, width)
	if len(series) == 0 {
		return nil
	}

	seriesCells := make([][][]uint8, 0, len(series))
	for si, s := range series {
		cells := makeCells(height, width)
		style := lineStyles[si%len(lineStyles)]
		prevX, prevY := -1, -1
		for x, v := range s.Values {
			px := x * 2
			py := valueToRow(v, height*4)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.shouldPlot(dx) {
						setBrailleDot(cells, dx, dy)
					}
				})
			} else if style.shouldPlot(px) {
				setBrailleDot(cells, px, py)
			}
			prevX, prevY = px, py
		}
		seriesCells = append(seriesCells, cells)
	}

	useColor := shouldUseColor(w, forceColor)
	leftAxisWidth := len(axisLabelTop)
	axisLabels := makeAxisLabels(height)

	if _, err := fmt.Fprintf(w, "Upper-tail p-values (divisor %d)\n", set.Divisor); err != nil {
		return err
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", leftAxisWidth, axisLabels[y], axisSeparator)
		for x := 0; x < width; x++ {
			mask, colorIdx := composeCell(seriesCells, x, y)
			ch := brailleFromMask(mask)
			if useColor && colorIdx >= 0 {
				row.WriteString(colorPalette[colorIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, xAxis(leftAxisWidth, width, MaxCutoff(set.Cutoffs))); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, renderLegend(series, set.Cutoffs, useColor)); err != nil {
		return err
	}
	return nil
}

func xAxis(leftAxisWidth, width, xMax int) string {
	pad := strings.Repeat(" ", leftAxisWidth+utf8.RuneCountInString(axisSeparator))
	right := fmt.Sprintf("%d", xMax)
	gap := width - 1 - len(right)
	if gap < 1 {
		gap = 1
	}
	return pad + "0" + strings.Repeat(" ", gap) + right
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := utf8.RuneCountInString(axisLabelTop) + utf8.RuneCountInString(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = axisLabelTop
	if height > 2 {
		labels[height/2] = axisLabelMid
	}
	if height > 1 {
		labels[height-1] = axisLabelBottom
	}
	return labels
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	colorIdx := -1
	for i, cells := range seriesCells {
		if y < 0 || y >= len(cells) || x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if colorIdx == -1 {
			colorIdx = i
		}
		mask |= cellMask
	}
	return mask, colorIdx
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

// valueToRow maps a probability in [0,1] to a dot row, 0 at the top.
func valueToRow(p float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	p = math.Max(0, math.Min(1, p))
	return int(math.Round((1 - p) * float64(rows-1)))
}

func renderLegend(series []Series, cutoffs model.CutoffTable, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0x01)
	for i, s := range series {
		styleName := lineStyles[i%len(lineStyles)].name
		label := fmt.Sprintf("%c %s cutoff %d (%s)", marker, s.Name, cutoffs[i], styleName)
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask follows the Unicode braille dot numbering (dots 1-8).
func brailleDotMask(x, y int) uint8 {
	if x == 0 {
		return [4]uint8{0x01, 0x02, 0x04, 0x40}[y]
	}
	return [4]uint8{0x08, 0x10, 0x20, 0x80}[y]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
