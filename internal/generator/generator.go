// Package generator builds chi-square p-value tables.
package generator

import (
	"github.com/verte-zerg/chi2plookup/internal/chi2"
	"github.com/verte-zerg/chi2plookup/internal/model"
)

// Builder computes cutoffs and p-value arrays for a generation request.
type Builder struct {
	dist chi2.Distribution
	logf func(format string, args ...any)
}

// New returns a Builder backed by dist. A nil dist selects the gonum distribution.
func New(dist chi2.Distribution) *Builder {
	if dist == nil {
		dist = chi2.Gonum{}
	}
	return &Builder{dist: dist}
}

// WithProgress sets a sink for progress notices. Notices never change the output.
func (b *Builder) WithProgress(logf func(format string, args ...any)) *Builder {
	b.logf = logf
	return b
}

// Build computes the tables for degrees of freedom 1..req.MaxDegreesOfFreedom in order.
func (b *Builder) Build(req model.GenerationRequest) model.TableSet {
	set := model.TableSet{
		Divisor: req.Precision,
		Cutoffs: make(model.CutoffTable, 0, req.MaxDegreesOfFreedom),
		Arrays:  make([]model.PValueArray, 0, req.MaxDegreesOfFreedom),
	}
	b.notify("Generating p-value arrays...\n")
	for df := 1; df <= req.MaxDegreesOfFreedom; df++ {
		cutoff := FindCutoff(b.dist, df, req.ReferenceCutoff)
		set.Cutoffs = append(set.Cutoffs, cutoff)
		b.notify("    Adding p-values array to template for degree of freedom = %d ...\n", df)
		set.Arrays = append(set.Arrays, b.PValues(df, cutoff, req.Precision))
	}
	return set
}

// PValues returns the upper-tail values at 0, 1/precision, ..., cutoff inclusive.
func (b *Builder) PValues(df, cutoff, precision int) model.PValueArray {
	n := cutoff * precision
	values := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		values[i] = chi2.UpperTail(b.dist, float64(i)/float64(precision), df)
	}
	return model.PValueArray{DegreesOfFreedom: df, Values: values}
}

func (b *Builder) notify(format string, args ...any) {
	if b.logf == nil {
		return
	}
	b.logf(format, args...)
}
