package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"plbind/internal/diag"
	"plbind/internal/diagfmt"
	"plbind/internal/driver"
	"plbind/internal/observ"
	"plbind/internal/project"
	"plbind/internal/ui"
	"plbind/internal/version"
)

// session carries what every generating command shares: configuration,
// driver options, tracing and timings.
type session struct {
	cmd     *cobra.Command
	cfg     project.Config
	opts    driver.Options
	timer   *observ.Timer
	quiet   bool
	timings bool
	cleanup func()
	dump    func(io.Writer)
}

// newSession resolves plbind.toml for paths and reads the global flags.
// Callers must defer s.close().
func newSession(cmd *cobra.Command, paths []string) (*session, error) {
	flags := cmd.Root().PersistentFlags()
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	s := &session{cmd: cmd, quiet: quiet, timings: timings, timer: observ.NewTimer()}
	done := s.timer.Track("config")
	s.cfg, err = loadConfig(configPath, paths)
	done(s.cfg.Root)
	if err != nil {
		return nil, err
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	stopTracing, dump, err := setupTracing(cmd)
	if err != nil {
		stopProfiling()
		return nil, err
	}
	s.dump = dump
	s.cleanup = func() {
		stopTracing()
		stopProfiling()
	}

	baseDir := s.cfg.Root
	if baseDir == "" {
		if baseDir, err = os.Getwd(); err != nil {
			s.cleanup()
			return nil, err
		}
	}
	s.opts = driver.Options{
		ABI:            s.cfg.ABI(),
		CgoImport:      s.cfg.Output.CgoImport,
		MaxDiagnostics: maxDiagnostics,
		BaseDir:        baseDir,
	}
	return s, nil
}

func loadConfig(explicit string, paths []string) (project.Config, error) {
	if explicit != "" {
		return project.Load(explicit)
	}
	start := "."
	if len(paths) > 0 {
		start = paths[0]
		if info, err := os.Stat(start); err == nil && !info.IsDir() {
			start = filepath.Dir(start)
		}
	}
	return project.Discover(start)
}

// addGenerateFlags registers the flags of commands that run the generator.
func addGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().Int("jobs", 0, "max files processed in parallel (0=auto)")
	cmd.Flags().Bool("cache", false, "reuse per-file results from the disk cache")
	cmd.Flags().Bool("cgo", false, "add import \"C\" to files with exported functions (overrides plbind.toml)")
	cmd.Flags().String("ui", "off", "progress view (auto|on|off)")
}

func (s *session) readGenerateFlags() error {
	flags := s.cmd.Flags()
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	s.opts.Jobs = jobs

	useCache, err := flags.GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	if useCache {
		cache, err := driver.OpenDiskCache("plbind")
		if err != nil {
			return err
		}
		s.opts.Cache = cache
	}

	if flags.Changed("cgo") {
		cgo, err := flags.GetBool("cgo")
		if err != nil {
			return fmt.Errorf("failed to get cgo flag: %w", err)
		}
		s.opts.CgoImport = cgo
	}
	return nil
}

// generate runs the driver, showing the progress view when requested.
func (s *session) generate(ctx context.Context, paths []string) (*driver.Result, error) {
	defer s.timer.Track("generate")("")

	mode := uiModeOff
	if s.cmd.Flags().Lookup("ui") != nil {
		value, err := s.cmd.Flags().GetString("ui")
		if err != nil {
			return nil, fmt.Errorf("failed to get ui flag: %w", err)
		}
		if mode, err = readUIMode(value); err != nil {
			return nil, err
		}
	}
	if s.quiet || !shouldUseTUI(mode) {
		return driver.Generate(ctx, paths, s.opts)
	}

	files, err := driver.CollectFiles(ctx, paths)
	if err != nil {
		return nil, err
	}
	events := make(chan driver.Event, 64)
	opts := s.opts
	opts.Progress = driver.ChannelSink{Ch: events}

	var wg sync.WaitGroup
	var uiErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		uiErr = ui.RunProgress(s.cmd.ErrOrStderr(), "plbind gen", files, events)
		// keep draining so workers never block on a dead view
		for range events {
		}
	}()
	res, err := driver.Generate(ctx, files, opts)
	close(events)
	wg.Wait()
	if err == nil && uiErr != nil && !s.quiet {
		fmt.Fprintf(s.cmd.ErrOrStderr(), "plbind: progress view: %v\n", uiErr)
	}
	return res, err
}

// report prints diagnostics in the requested format and timings, and
// returns errReported when any error diagnostic exists.
func (s *session) report(res *driver.Result, out diagOutput) error {
	defer s.timer.Track("report")("")

	bag := diag.NewBag(0)
	for _, f := range res.Files {
		bag.Merge(f.Bag)
	}
	if out.noWarnings {
		bag.Filter(func(d *diag.Diagnostic) bool { return d.Severity == diag.SevError })
	}
	if out.warningsAsErrors {
		for _, d := range bag.Items() {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
		}
	}
	bag.Sort()

	stdout, stderr := s.cmd.OutOrStdout(), s.cmd.ErrOrStderr()
	switch out.format {
	case "pretty":
		diagfmt.Pretty(stderr, bag, res.FileSet, diagfmt.PrettyOpts{
			Color:       !color.NoColor,
			Context:     0,
			PathMode:    out.pathMode,
			ShowNotes:   out.withNotes,
			ShowFixes:   out.suggest,
			ShowPreview: out.preview,
		})
	case "short":
		diagfmt.Short(stderr, bag, res.FileSet, out.pathMode)
	case "json":
		if err := diagfmt.JSON(stdout, bag, res.FileSet, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         out.pathMode,
			IncludeNotes:     out.withNotes,
			IncludeFixes:     out.suggest,
			IncludePreviews:  out.preview,
		}); err != nil {
			return err
		}
	case "sarif":
		if err := diagfmt.Sarif(stdout, bag, res.FileSet, diagfmt.SarifRunMeta{
			ToolName:       "plbind",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args,
		}); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (expected pretty|short|json|sarif)", out.format)
	}

	if !s.quiet && out.format == "pretty" {
		accepted, rejected := res.Counts()
		fmt.Fprintf(stderr, "%d declaration(s) transformed, %d rejected in %d file(s)\n", accepted, rejected, len(res.Files))
	}
	if bag.HasErrors() {
		s.dump(stderr)
		return errReported
	}
	return nil
}

func (s *session) close() {
	if s.timings {
		fmt.Fprint(s.cmd.ErrOrStderr(), s.timer.Summary())
	}
	s.cleanup()
}

// diagOutput selects how diagnostics are rendered.
type diagOutput struct {
	format           string
	pathMode         diagfmt.PathMode
	withNotes        bool
	suggest          bool
	preview          bool
	noWarnings       bool
	warningsAsErrors bool
}

func addDiagFlags(cmd *cobra.Command, defaultFormat string) {
	cmd.Flags().String("format", defaultFormat, "diagnostic format (pretty|short|json|sarif)")
	cmd.Flags().String("path-mode", "auto", "file paths in diagnostics (auto|absolute|relative|basename)")
	cmd.Flags().Bool("with-notes", true, "include diagnostic notes")
	cmd.Flags().Bool("suggest", false, "include fix suggestions")
	cmd.Flags().Bool("preview", false, "show fix previews (with --suggest)")
	cmd.Flags().Bool("no-warnings", false, "hide warnings")
	cmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
}

func readDiagFlags(cmd *cobra.Command) (diagOutput, error) {
	var out diagOutput
	var err error
	flags := cmd.Flags()
	if out.format, err = flags.GetString("format"); err != nil {
		return out, fmt.Errorf("failed to get format flag: %w", err)
	}
	pathMode, err := flags.GetString("path-mode")
	if err != nil {
		return out, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	var ok bool
	if out.pathMode, ok = diagfmt.ParsePathMode(pathMode); !ok {
		return out, fmt.Errorf("invalid --path-mode value %q", pathMode)
	}
	if out.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return out, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if out.suggest, err = flags.GetBool("suggest"); err != nil {
		return out, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if out.preview, err = flags.GetBool("preview"); err != nil {
		return out, fmt.Errorf("failed to get preview flag: %w", err)
	}
	if out.noWarnings, err = flags.GetBool("no-warnings"); err != nil {
		return out, fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	if out.warningsAsErrors, err = flags.GetBool("warnings-as-errors"); err != nil {
		return out, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if out.noWarnings && out.warningsAsErrors {
		return out, fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	return out, nil
}
