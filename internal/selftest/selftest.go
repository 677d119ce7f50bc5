// Package selftest compiles and runs a tiny C++ program against a generated
// header and compares its lookup with the in-process distribution.
package selftest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/verte-zerg/chi2plookup/internal/chi2"
	"github.com/verte-zerg/chi2plookup/internal/header"
	"github.com/verte-zerg/chi2plookup/internal/model"
)

// DefaultCompiler is used when the config names none.
const DefaultCompiler = "g++"

// DefaultFlags are passed to the compiler when the config names none.
var DefaultFlags = []string{"-std=c++11"}

const programTemplate = `#include <iostream>
#include "%s"

int main() {
    
    Chi2PValues chi2_plookup_table;
    double x = %s;
    int df = %d;
    double outvalue;

    outvalue = chi2_plookup_table.getPValue(x, df);
    std::cout << "Estimated value: " << outvalue << "\n";

    return 0;
}
`

// Result holds the reference value and the compiled program's output.
type Result struct {
	Actual float64
	Output string
}

// Source renders the test program for cfg.
func Source(cfg model.SelftestConfig) string {
	include := cfg.HeaderPath
	if rel, err := filepath.Rel(filepath.Dir(cfg.SourcePath), cfg.HeaderPath); err == nil {
		include = rel
	}
	include = filepath.ToSlash(include)
	return fmt.Sprintf(programTemplate, include, header.FormatFloat(cfg.Value), cfg.DF)
}

// Run writes the program, compiles it and executes the binary.
func Run(ctx context.Context, dist chi2.Distribution, cfg model.SelftestConfig) (Result, error) {
	if dist == nil {
		dist = chi2.Gonum{}
	}
	if cfg.DF < 1 {
		return Result{}, fmt.Errorf("--df must be >= 1")
	}
	if _, err := os.Stat(cfg.HeaderPath); err != nil {
		return Result{}, fmt.Errorf("failed to stat header: %w", err)
	}
	res := Result{Actual: chi2.UpperTail(dist, cfg.Value, cfg.DF)}

	if err := os.WriteFile(cfg.SourcePath, []byte(Source(cfg)), 0o644); err != nil {
		return res, fmt.Errorf("failed to write test source: %w", err)
	}

	compiler := cfg.Compiler
	if compiler == "" {
		compiler = DefaultCompiler
	}
	flags := cfg.Flags
	if len(flags) == 0 {
		flags = DefaultFlags
	}
	args := append(append([]string{}, flags...), cfg.SourcePath, "-o", cfg.BinaryPath)
	if _, err := runCommand(ctx, compiler, args...); err != nil {
		return res, fmt.Errorf("failed to compile test program: %w", err)
	}

	binary := cfg.BinaryPath
	if !filepath.IsAbs(binary) && !strings.ContainsRune(binary, filepath.Separator) {
		binary = "." + string(filepath.Separator) + binary
	}
	out, err := runCommand(ctx, binary)
	if err != nil {
		return res, fmt.Errorf("failed to run test program: %w", err)
	}
	res.Output = strings.TrimSpace(out)
	return res, nil
}

// Estimated extracts the value printed by the test program.
func Estimated(output string) (float64, error) {
	const prefix = "Estimated value:"
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, prefix)), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid estimated value: %w", err)
		}
		return v, nil
	}
	return 0, fmt.Errorf("no estimated value in output")
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}
