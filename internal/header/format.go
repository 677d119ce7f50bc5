package header

import (
	"bytes"
	"math"
	"strconv"
)

// AppendFloat appends the shortest decimal form of v that round-trips, using
// exponent notation below 1e-4 and keeping a ".0" on integral values.
func AppendFloat(dst []byte, v float64) []byte {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.AppendFloat(dst, v, 'g', -1, 64)
	}
	start := len(dst)
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.AppendFloat(dst, v, 'g', -1, 64)
	}
	dst = strconv.AppendFloat(dst, v, 'f', -1, 64)
	if !bytes.ContainsRune(dst[start:], '.') {
		dst = append(dst, '.', '0')
	}
	return dst
}

// FormatFloat is the string form of AppendFloat.
func FormatFloat(v float64) string {
	return string(AppendFloat(nil, v))
}
