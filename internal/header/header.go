// Package header renders p-value tables as a C++ header.
package header

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/verte-zerg/chi2plookup/internal/model"
)

const prelude = `#ifndef CHI2PVALUES_H
#define CHI2PVALUES_H


struct Chi2PValues
{
    static const double * pValues[];
    static const int cutoff[];
    static const int divisor;

    inline double getPValue(double statistic, int df) {
        return((statistic >= cutoff[df-1]) ? 0.0 : pValues[df-1][int(divisor * statistic)]);
    }
    
};

`

const epilogue = `

#endif // CHI2PVALUES_H
`

// Write streams the header for set into w.
func Write(w io.Writer, set model.TableSet) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(prelude); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "const int Chi2PValues::divisor = %d;\n", set.Divisor); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "const int Chi2PValues::cutoff[] = {%s};\n\n", joinInts(set.Cutoffs)); err != nil {
		return err
	}
	names := make([]string, 0, len(set.Arrays))
	for i, arr := range set.Arrays {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		if err := writeArray(bw, arr); err != nil {
			return err
		}
		names = append(names, arr.Name())
	}
	if _, err := fmt.Fprintf(bw, "\nconst double * Chi2PValues::pValues[] = {%s};\n", strings.Join(names, ", ")); err != nil {
		return err
	}
	if _, err := bw.WriteString(epilogue); err != nil {
		return err
	}
	return bw.Flush()
}

// Render returns the header for set as a string.
func Render(set model.TableSet) string {
	var b strings.Builder
	// strings.Builder never fails.
	_ = Write(&b, set)
	return b.String()
}

func writeArray(bw *bufio.Writer, arr model.PValueArray) error {
	if _, err := fmt.Fprintf(bw, "double %s[] = {", arr.Name()); err != nil {
		return err
	}
	buf := make([]byte, 0, 32)
	for i, v := range arr.Values {
		if i > 0 {
			if _, err := bw.WriteString(", "); err != nil {
				return err
			}
		}
		buf = AppendFloat(buf[:0], v)
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	_, err := bw.WriteString("};")
	return err
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
