package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Generate.Precision != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[generate]
headerfile = "out/Table.h"
precision = 100
df = 3
start_chi = 30

[selftest]
cxx = "clang++"
cxxflags = ["-std=c++17", "-O2"]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Generate.HeaderFile == nil || *cfg.Generate.HeaderFile != "out/Table.h" {
		t.Fatalf("unexpected headerfile: %v", cfg.Generate.HeaderFile)
	}
	if cfg.Generate.Precision == nil || *cfg.Generate.Precision != 100 {
		t.Fatalf("unexpected precision")
	}
	if cfg.Generate.DF == nil || *cfg.Generate.DF != 3 {
		t.Fatalf("unexpected df")
	}
	if cfg.Generate.StartChi == nil || *cfg.Generate.StartChi != 30 {
		t.Fatalf("unexpected start_chi")
	}
	if cfg.Generate.Verbose != nil {
		t.Fatalf("expected verbose unset")
	}
	if cfg.Selftest.Compiler == nil || *cfg.Selftest.Compiler != "clang++" {
		t.Fatalf("unexpected compiler")
	}
	if len(cfg.Selftest.Flags) != 2 {
		t.Fatalf("unexpected flags: %v", cfg.Selftest.Flags)
	}
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[generate\nprecision = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadAppliesEnvOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[generate]\nprecision = 100\ndf = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHI2PLOOKUP_PRECISION", "500")
	t.Setenv("CHI2PLOOKUP_VERBOSE", "true")
	t.Setenv("CHI2PLOOKUP_CXXFLAGS", "-std=c++11 -Wall")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *cfg.Generate.Precision != 500 {
		t.Fatalf("expected env precision 500, got %d", *cfg.Generate.Precision)
	}
	if *cfg.Generate.DF != 3 {
		t.Fatalf("expected file df 3, got %d", *cfg.Generate.DF)
	}
	if cfg.Generate.Verbose == nil || !*cfg.Generate.Verbose {
		t.Fatalf("expected verbose from env")
	}
	if len(cfg.Selftest.Flags) != 2 || cfg.Selftest.Flags[1] != "-Wall" {
		t.Fatalf("unexpected flags: %v", cfg.Selftest.Flags)
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("CHI2PLOOKUP_DF", "six")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected env parse error")
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "chi2plookup", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/tmp/data", "chi2plookup", "chi2plookup.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}
