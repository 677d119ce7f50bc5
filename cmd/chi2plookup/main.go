// Package main provides the CLI entrypoint for chi2plookup.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/chi2plookup/internal/chi2"
	"github.com/verte-zerg/chi2plookup/internal/config"
	"github.com/verte-zerg/chi2plookup/internal/generator"
	"github.com/verte-zerg/chi2plookup/internal/header"
	"github.com/verte-zerg/chi2plookup/internal/historyui"
	"github.com/verte-zerg/chi2plookup/internal/model"
	"github.com/verte-zerg/chi2plookup/internal/report"
	"github.com/verte-zerg/chi2plookup/internal/selftest"
	"github.com/verte-zerg/chi2plookup/internal/store"
)

const version = "0.1"

const (
	defaultHeaderFile    = "Chi2PValues.h"
	defaultPrecision     = 10000
	defaultDF            = 6
	defaultStartChi      = 25
	defaultPlotPrecision = 100
	defaultHistoryLimit  = 20
	defaultTestValue     = 1.0
	defaultTestDF        = 1
	defaultTestSource    = "test.cpp"
	defaultTestBinary    = "test.out"
)

var (
	genHeaderFile string
	genPrecision  int
	genDF         int
	genStartChi   int
	genVerbose    bool
	genNoHistory  bool

	testHeaderFile string
	testValue      float64
	testDF         int
	testSource     string
	testBinary     string
	testCompiler   string

	cutoffsDF        int
	cutoffsStartChi  int
	cutoffsPrecision int

	plotDF        int
	plotStartChi  int
	plotPrecision int
	plotWidth     int
	plotHeight    int
	plotColor     bool

	historyLimit int
	historyPlain bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chi2plookup",
		Short:         "Generate chi-square p-value lookup headers",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newSelftestCmd())
	rootCmd.AddCommand(newCutoffsCmd())
	rootCmd.AddCommand(newPlotCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the p-value header file",
		Args:  cobra.NoArgs,
		RunE:  runGenerateCmd,
	}
	cmd.Flags().StringVar(&genHeaderFile, "headerfile", defaultHeaderFile, "path where to save generated header file")
	cmd.Flags().IntVar(&genPrecision, "precision", defaultPrecision, "table entries per unit of chi-square statistic")
	cmd.Flags().IntVar(&genDF, "df", defaultDF, "generate tables for degrees of freedom 1..df")
	cmd.Flags().IntVar(&genStartChi, "start_chi", defaultStartChi, "cutoff chi-square value for degree of freedom 1")
	cmd.Flags().BoolVar(&genVerbose, "verbose", false, "print progress")
	cmd.Flags().BoolVar(&genNoHistory, "no-history", false, "do not record the run in the history database")
	return cmd
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "headerfile", &genHeaderFile, fileCfg.Generate.HeaderFile)
	applyIntConfig(cmd, "precision", &genPrecision, fileCfg.Generate.Precision)
	applyIntConfig(cmd, "df", &genDF, fileCfg.Generate.DF)
	applyIntConfig(cmd, "start_chi", &genStartChi, fileCfg.Generate.StartChi)
	applyBoolConfig(cmd, "verbose", &genVerbose, fileCfg.Generate.Verbose)

	req := model.GenerationRequest{
		Precision:           genPrecision,
		MaxDegreesOfFreedom: genDF,
		ReferenceCutoff:     genStartChi,
		OutputPath:          genHeaderFile,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	started := time.Now()
	builder := generator.New(chi2.Gonum{})
	if genVerbose {
		builder.WithProgress(logErrf)
	}
	set := builder.Build(req)

	if genVerbose {
		logErrf("Saving file to: %s\n", absPath(req.OutputPath))
	}
	written, err := header.WriteFile(req.OutputPath, set)
	if err != nil {
		return err
	}

	if !genNoHistory {
		recordRun(model.RunRecord{
			GeneratedAt:         started,
			OutputPath:          absPath(written.Path),
			Precision:           req.Precision,
			MaxDegreesOfFreedom: req.MaxDegreesOfFreedom,
			ReferenceCutoff:     req.ReferenceCutoff,
			Cutoffs:             set.Cutoffs,
			SHA256:              written.SHA256,
			Bytes:               written.Bytes,
			DurationMs:          time.Since(started).Milliseconds(),
		})
	}
	return nil
}

func recordRun(run model.RunRecord) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logErrf("failed to open history db: %v\n", err)
		return
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close history db: %v\n", cerr)
		}
	}()
	if _, err := st.InsertRun(context.Background(), run); err != nil {
		logErrf("failed to record run: %v\n", err)
	}
}

func newSelftestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Compile and run a test program against a generated header",
		Args:  cobra.NoArgs,
		RunE:  runSelftestCmd,
	}
	cmd.Flags().StringVar(&testHeaderFile, "headerfile", defaultHeaderFile, "generated header to test")
	cmd.Flags().Float64Var(&testValue, "value", defaultTestValue, "chi-square statistic to look up")
	cmd.Flags().IntVar(&testDF, "df", defaultTestDF, "degree of freedom to look up")
	cmd.Flags().StringVar(&testSource, "src", defaultTestSource, "path of the generated test source")
	cmd.Flags().StringVar(&testBinary, "bin", defaultTestBinary, "path of the compiled test binary")
	cmd.Flags().StringVar(&testCompiler, "cxx", selftest.DefaultCompiler, "C++ compiler")
	return cmd
}

func runSelftestCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "headerfile", &testHeaderFile, fileCfg.Generate.HeaderFile)
	applyStringConfig(cmd, "cxx", &testCompiler, fileCfg.Selftest.Compiler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := selftest.Run(ctx, chi2.Gonum{}, model.SelftestConfig{
		HeaderPath: testHeaderFile,
		Value:      testValue,
		DF:         testDF,
		SourcePath: testSource,
		BinaryPath: testBinary,
		Compiler:   testCompiler,
		Flags:      fileCfg.Selftest.Flags,
	})
	out := cmd.OutOrStdout()
	if _, werr := fmt.Fprintf(out, "Actual value: %s\n", header.FormatFloat(res.Actual)); werr != nil {
		return fmt.Errorf("failed to write output: %w", werr)
	}
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, res.Output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newCutoffsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cutoffs",
		Short: "Show the cutoff of every degree of freedom",
		Args:  cobra.NoArgs,
		RunE:  runCutoffsCmd,
	}
	cmd.Flags().IntVar(&cutoffsDF, "df", defaultDF, "show degrees of freedom 1..df")
	cmd.Flags().IntVar(&cutoffsStartChi, "start_chi", defaultStartChi, "cutoff chi-square value for degree of freedom 1")
	cmd.Flags().IntVar(&cutoffsPrecision, "precision", defaultPrecision, "precision used for element counts")
	return cmd
}

func runCutoffsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "precision", &cutoffsPrecision, fileCfg.Generate.Precision)
	applyIntConfig(cmd, "df", &cutoffsDF, fileCfg.Generate.DF)
	applyIntConfig(cmd, "start_chi", &cutoffsStartChi, fileCfg.Generate.StartChi)
	req := model.GenerationRequest{Precision: cutoffsPrecision, MaxDegreesOfFreedom: cutoffsDF, ReferenceCutoff: cutoffsStartChi}
	if err := req.Validate(); err != nil {
		return err
	}

	dist := chi2.Gonum{}
	rows := report.Cutoffs(dist, req.MaxDegreesOfFreedom, req.ReferenceCutoff, req.Precision)
	if err := report.WriteCutoffs(cmd.OutOrStdout(), req.ReferenceCutoff, generator.ReferenceTail(dist, req.ReferenceCutoff), rows); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot the upper-tail curves of the generated tables",
		Args:  cobra.NoArgs,
		RunE:  runPlotCmd,
	}
	cmd.Flags().IntVar(&plotDF, "df", defaultDF, "plot degrees of freedom 1..df")
	cmd.Flags().IntVar(&plotStartChi, "start_chi", defaultStartChi, "cutoff chi-square value for degree of freedom 1")
	cmd.Flags().IntVar(&plotPrecision, "precision", defaultPlotPrecision, "table entries per unit of chi-square statistic")
	cmd.Flags().IntVar(&plotWidth, "width", 0, "plot width in columns (default: terminal width)")
	cmd.Flags().IntVar(&plotHeight, "height", 0, "plot height in rows")
	cmd.Flags().BoolVar(&plotColor, "color", false, "force colored output")
	return cmd
}

func runPlotCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "df", &plotDF, fileCfg.Generate.DF)
	applyIntConfig(cmd, "start_chi", &plotStartChi, fileCfg.Generate.StartChi)
	req := model.GenerationRequest{Precision: plotPrecision, MaxDegreesOfFreedom: plotDF, ReferenceCutoff: plotStartChi}
	if err := req.Validate(); err != nil {
		return err
	}

	set := generator.New(chi2.Gonum{}).Build(req)
	if err := report.PlotTails(cmd.OutOrStdout(), set, plotWidth, plotHeight, plotColor); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded generation runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit, "number of recent runs to show (0 for all)")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a plain table instead of the interactive view")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	runs, err := st.ListRuns(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if historyPlain || len(runs) == 0 || !isTerminal(cmd.OutOrStdout()) {
		if err := report.WriteHistory(cmd.OutOrStdout(), runs); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	program := tea.NewProgram(historyui.NewModel(runs), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# chi2plookup configuration
# Uncomment a value to enable it. CHI2PLOOKUP_* environment variables
# override the file; CLI flags override both.

[generate]
# headerfile = %q   # Path where to save generated header file
# precision = %d        # Table entries per unit of chi-square statistic
# df = %d                   # Degrees of freedom 1..df
# start_chi = %d           # Cutoff chi-square value for degree of freedom 1
# verbose = false

[selftest]
# cxx = %q
# cxxflags = ["-std=c++11"]
`,
		defaultHeaderFile,
		defaultPrecision,
		defaultDF,
		defaultStartChi,
		selftest.DefaultCompiler,
	)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func isTerminal(w any) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
