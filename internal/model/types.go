// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// GenerationRequest describes one header generation.
type GenerationRequest struct {
	Precision           int
	MaxDegreesOfFreedom int
	ReferenceCutoff     int
	OutputPath          string
}

// Validate checks the numeric inputs the generator relies on.
func (r GenerationRequest) Validate() error {
	if r.Precision <= 0 {
		return fmt.Errorf("--precision must be > 0")
	}
	if r.MaxDegreesOfFreedom < 1 {
		return fmt.Errorf("--df must be >= 1")
	}
	if r.ReferenceCutoff <= 0 {
		return fmt.Errorf("--start_chi must be > 0")
	}
	return nil
}

// CutoffTable holds one cutoff per degree of freedom, starting at df=1.
type CutoffTable []int

// PValueArray holds upper-tail p-values at statistic i/divisor for one degree of freedom.
type PValueArray struct {
	DegreesOfFreedom int
	Values           []float64
}

// Name returns the array identifier used in the generated header.
func (a PValueArray) Name() string {
	return fmt.Sprintf("pValues_%d", a.DegreesOfFreedom)
}

// TableSet is everything the header serializer needs.
type TableSet struct {
	Divisor int
	Cutoffs CutoffTable
	Arrays  []PValueArray
}

// SelftestConfig defines a self-test run against a generated header.
type SelftestConfig struct {
	HeaderPath string
	Value      float64
	DF         int
	SourcePath string
	BinaryPath string
	Compiler   string
	Flags      []string
}

// RunRecord captures a completed generation for the history log.
type RunRecord struct {
	ID                  int64
	GeneratedAt         time.Time
	OutputPath          string
	Precision           int
	MaxDegreesOfFreedom int
	ReferenceCutoff     int
	Cutoffs             CutoffTable
	SHA256              string
	Bytes               int64
	DurationMs          int64
}
