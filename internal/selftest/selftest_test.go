package selftest

import (
	"context"
	"math"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/chi2plookup/internal/chi2"
	"github.com/verte-zerg/chi2plookup/internal/generator"
	"github.com/verte-zerg/chi2plookup/internal/header"
	"github.com/verte-zerg/chi2plookup/internal/model"
)

func TestSourceIncludesHeaderRelativeToSource(t *testing.T) {
	src := Source(model.SelftestConfig{
		HeaderPath: filepath.Join("build", "Chi2PValues.h"),
		SourcePath: filepath.Join("build", "test.cpp"),
		Value:      1,
		DF:         2,
	})
	for _, want := range []string{`#include "Chi2PValues.h"`, "double x = 1.0;", "int df = 2;", "getPValue(x, df)"} {
		if !strings.Contains(src, want) {
			t.Fatalf("source missing %q:\n%s", want, src)
		}
	}
}

func TestEstimated(t *testing.T) {
	v, err := Estimated("Estimated value: 0.3173\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v != 0.3173 {
		t.Fatalf("expected 0.3173, got %v", v)
	}
	if _, err := Estimated("garbage"); err == nil {
		t.Fatalf("expected error for missing value")
	}
	if _, err := Estimated("Estimated value: nope"); err == nil {
		t.Fatalf("expected error for bad value")
	}
}

func TestRunRequiresHeader(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), nil, model.SelftestConfig{
		HeaderPath: filepath.Join(dir, "missing.h"),
		SourcePath: filepath.Join(dir, "test.cpp"),
		BinaryPath: filepath.Join(dir, "test.out"),
		Value:      1,
		DF:         1,
	})
	if err == nil {
		t.Fatalf("expected error for missing header")
	}
}

func TestRunCompilesAndMatches(t *testing.T) {
	if _, err := exec.LookPath(DefaultCompiler); err != nil {
		t.Skip("no C++ compiler available")
	}
	dir := t.TempDir()
	headerPath := filepath.Join(dir, "Chi2PValues.h")
	set := generator.New(nil).Build(model.GenerationRequest{Precision: 1000, MaxDegreesOfFreedom: 2, ReferenceCutoff: 10})
	if _, err := header.WriteFile(headerPath, set); err != nil {
		t.Fatalf("write header: %v", err)
	}

	res, err := Run(context.Background(), nil, model.SelftestConfig{
		HeaderPath: headerPath,
		SourcePath: filepath.Join(dir, "test.cpp"),
		BinaryPath: filepath.Join(dir, "test.out"),
		Value:      1,
		DF:         1,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if math.Abs(res.Actual-chi2.UpperTail(chi2.Gonum{}, 1, 1)) > 1e-15 {
		t.Fatalf("unexpected reference value %v", res.Actual)
	}
	got, err := Estimated(res.Output)
	if err != nil {
		t.Fatalf("parse output %q: %v", res.Output, err)
	}
	// std::cout prints six significant digits.
	if math.Abs(got-res.Actual) > 1e-5 {
		t.Fatalf("estimated %v, actual %v", got, res.Actual)
	}
}
