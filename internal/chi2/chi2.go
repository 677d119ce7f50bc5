// Package chi2 provides the chi-square distribution used to fill p-value tables.
package chi2

import "gonum.org/v1/gonum/stat/distuv"

// Distribution evaluates the chi-square cumulative distribution function.
type Distribution interface {
	CDF(x float64, df int) float64
}

// Gonum evaluates the CDF with gonum's regularized incomplete gamma function.
type Gonum struct{}

// CDF implements Distribution.
func (Gonum) CDF(x float64, df int) float64 {
	return distuv.ChiSquared{K: float64(df)}.CDF(x)
}

// UpperTail returns the probability mass at or above x for the given degree of freedom.
func UpperTail(d Distribution, x float64, df int) float64 {
	return 1 - d.CDF(x, df)
}
