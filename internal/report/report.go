package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/chi2plookup/internal/chi2"
	"github.com/verte-zerg/chi2plookup/internal/generator"
	"github.com/verte-zerg/chi2plookup/internal/model"
)

// CutoffRow describes the table extent for one degree of freedom.
type CutoffRow struct {
	DF       int
	Cutoff   int
	Elements int
	Tail     float64
}

// Cutoffs computes the cutoff of every degree of freedom 1..maxDF without
// building the p-value arrays.
func Cutoffs(dist chi2.Distribution, maxDF, referenceCutoff, precision int) []CutoffRow {
	rows := make([]CutoffRow, 0, maxDF)
	for df := 1; df <= maxDF; df++ {
		cutoff := generator.FindCutoff(dist, df, referenceCutoff)
		rows = append(rows, CutoffRow{
			DF:       df,
			Cutoff:   cutoff,
			Elements: cutoff*precision + 1,
			Tail:     chi2.UpperTail(dist, float64(cutoff), df),
		})
	}
	return rows
}

// WriteCutoffs prints the reference tail and the cutoff table.
func WriteCutoffs(w io.Writer, referenceCutoff int, referenceTail float64, rows []CutoffRow) error {
	if _, err := fmt.Fprintf(w, "Reference: chi=%d df=1 tail=%.6g\n", referenceCutoff, referenceTail); err != nil {
		return err
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			strconv.Itoa(r.DF),
			strconv.Itoa(r.Cutoff),
			strconv.Itoa(r.Elements),
			fmt.Sprintf("%.6g", r.Tail),
		})
	}
	return writeLines(w, FormatTable([]string{"DF", "Cutoff", "Elements", "Tail"}, cells, map[int]bool{0: true, 1: true, 2: true, 3: true}))
}

// HistoryRows converts runs into table cells in display order.
func HistoryRows(runs []model.RunRecord) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.GeneratedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(run.Precision),
			strconv.Itoa(run.MaxDegreesOfFreedom),
			strconv.Itoa(run.ReferenceCutoff),
			JoinCutoffs(run.Cutoffs),
			ShortHash(run.SHA256),
			run.OutputPath,
		})
	}
	return rows
}

// HistoryHeaders are the column titles matching HistoryRows.
var HistoryHeaders = []string{"ID", "Generated", "Precision", "DF", "StartChi", "Cutoffs", "SHA256", "Path"}

// WriteHistory prints runs as a plain table.
func WriteHistory(w io.Writer, runs []model.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No generation runs recorded.")
		return err
	}
	return writeLines(w, FormatTable(HistoryHeaders, HistoryRows(runs), map[int]bool{0: true, 2: true, 3: true, 4: true}))
}

// JoinCutoffs renders cutoffs as "25,28,31".
func JoinCutoffs(cutoffs model.CutoffTable) string {
	parts := make([]string, len(cutoffs))
	for i, c := range cutoffs {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

// ShortHash truncates a hex digest for display.
func ShortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
