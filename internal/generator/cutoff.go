package generator

import "github.com/verte-zerg/chi2plookup/internal/chi2"

// ReferenceTail returns the df=1 upper-tail mass beyond referenceCutoff.
func ReferenceTail(dist chi2.Distribution, referenceCutoff int) float64 {
	return chi2.UpperTail(dist, float64(referenceCutoff), 1)
}

// FindCutoff returns the smallest integer statistic, starting at referenceCutoff,
// whose upper tail for df drops below the df=1 tail at referenceCutoff.
// For df=1 the reference cutoff is returned unchanged.
func FindCutoff(dist chi2.Distribution, df, referenceCutoff int) int {
	if df == 1 {
		return referenceCutoff
	}
	ref := ReferenceTail(dist, referenceCutoff)
	candidate := referenceCutoff
	for chi2.UpperTail(dist, float64(candidate), df) >= ref {
		candidate++
	}
	return candidate
}
