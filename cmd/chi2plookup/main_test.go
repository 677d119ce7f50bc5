package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/chi2plookup/internal/config"
)

func setupHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestGenerateWritesHeaderAndHistory(t *testing.T) {
	dir := setupHome(t)
	headerPath := filepath.Join(dir, "out", "Chi2PValues.h")

	if _, err := execute(t, "generate", "--headerfile", headerPath, "--precision", "10", "--df", "2", "--start_chi", "10"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := os.ReadFile(headerPath)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"const int Chi2PValues::divisor = 10;\n",
		"const int Chi2PValues::cutoff[] = {10, ",
		"double pValues_1[] = {1.0, ",
		"double pValues_2[] = {1.0, ",
		"const double * Chi2PValues::pValues[] = {pValues_1, pValues_2};\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("header missing %q", want)
		}
	}

	out, err := execute(t, "history", "--plain")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, headerPath) {
		t.Fatalf("history missing header path:\n%s", out)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	dir := setupHome(t)
	first := filepath.Join(dir, "a.h")
	second := filepath.Join(dir, "b.h")
	for _, path := range []string{first, second} {
		if _, err := execute(t, "generate", "--headerfile", path, "--precision", "20", "--df", "3", "--start_chi", "8", "--no-history"); err != nil {
			t.Fatalf("generate %s: %v", path, err)
		}
	}
	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read first: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read second: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected byte-identical headers")
	}

	out, err := execute(t, "history", "--plain")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No generation runs") {
		t.Fatalf("expected no recorded runs with --no-history:\n%s", out)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	setupHome(t)
	cases := [][]string{
		{"generate", "--precision", "0", "--no-history"},
		{"generate", "--df", "0", "--no-history"},
		{"generate", "--start_chi=-1", "--no-history"},
	}
	for _, args := range cases {
		if _, err := execute(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestGenerateConfigPrecedence(t *testing.T) {
	dir := setupHome(t)
	headerPath := filepath.Join(dir, "cfg.h")
	writeConfig(t, "[generate]\nheaderfile = \""+filepath.ToSlash(headerPath)+"\"\nprecision = 10\ndf = 1\nstart_chi = 5\n")
	t.Setenv("CHI2PLOOKUP_START_CHI", "6")

	if _, err := execute(t, "generate", "--df", "2", "--no-history"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := os.ReadFile(headerPath)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "const int Chi2PValues::divisor = 10;\n") {
		t.Fatalf("expected divisor from config file")
	}
	if !strings.Contains(text, "const int Chi2PValues::cutoff[] = {6, ") {
		t.Fatalf("expected start_chi from env")
	}
	if !strings.Contains(text, "pValues_2") {
		t.Fatalf("expected df from flag")
	}
}

func TestCutoffsCommand(t *testing.T) {
	setupHome(t)
	out, err := execute(t, "cutoffs", "--df", "3", "--start_chi", "25", "--precision", "100")
	if err != nil {
		t.Fatalf("cutoffs: %v", err)
	}
	if !strings.HasPrefix(out, "Reference: chi=25 df=1") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[2], " 25 ") || !strings.Contains(lines[2], "2501") {
		t.Fatalf("unexpected df=1 row %q", lines[2])
	}
}

func TestPlotCommand(t *testing.T) {
	setupHome(t)
	out, err := execute(t, "plot", "--df", "2", "--start_chi", "10", "--precision", "10", "--width", "30", "--height", "5")
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if !strings.Contains(out, "Upper-tail p-values (divisor 10)") || !strings.Contains(out, "df=2") {
		t.Fatalf("unexpected plot:\n%s", out)
	}
}

func TestEnsureConfigFileWritesLoadableTemplate(t *testing.T) {
	setupHome(t)
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Generate.Precision != nil || cfg.Selftest.Compiler != nil {
		t.Fatalf("expected all template values commented out")
	}
	if err := os.WriteFile(path, []byte("[generate]\ndf = 2\n"), 0o644); err != nil {
		t.Fatalf("overwrite config: %v", err)
	}
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure existing config: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(data) != "[generate]\ndf = 2\n" {
		t.Fatalf("existing config was overwritten")
	}
}
