package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ApplyEnv overlays environment variables onto cfg. Unset variables leave
// the file values in place.
func ApplyEnv(cfg *FileConfig) error {
	var fromEnv FileConfig
	if err := env.Parse(&fromEnv); err != nil {
		return fmt.Errorf("failed to parse env: %w", err)
	}
	mergeGenerate(&cfg.Generate, fromEnv.Generate)
	if fromEnv.Selftest.Compiler != nil {
		cfg.Selftest.Compiler = fromEnv.Selftest.Compiler
	}
	if len(fromEnv.Selftest.Flags) > 0 {
		cfg.Selftest.Flags = fromEnv.Selftest.Flags
	}
	return nil
}

func mergeGenerate(dst *GenerateConfig, src GenerateConfig) {
	if src.HeaderFile != nil {
		dst.HeaderFile = src.HeaderFile
	}
	if src.Precision != nil {
		dst.Precision = src.Precision
	}
	if src.DF != nil {
		dst.DF = src.DF
	}
	if src.StartChi != nil {
		dst.StartChi = src.StartChi
	}
	if src.Verbose != nil {
		dst.Verbose = src.Verbose
	}
}
