package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"plbind/internal/manifest"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest [flags] <file.go|directory>...",
	Short: "Describe every transformed declaration for binding generators",
	Long: `Run the generator and write the export manifest: one entry per accepted
declaration with its symbol, parameters (pointer/length roles included),
record fields and layout. Nothing is written when any declaration is rejected.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runManifest,
}

func init() {
	addGenerateFlags(manifestCmd)
	addDiagFlags(manifestCmd, "pretty")
	manifestCmd.Flags().StringP("out", "o", "", "manifest path, - for stdout (default: [output].manifest)")
	manifestCmd.Flags().String("manifest-format", "", "json|yaml|msgpack (default: from extension or plbind.toml)")
}

func runManifest(cmd *cobra.Command, args []string) error {
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	formatFlag, err := cmd.Flags().GetString("manifest-format")
	if err != nil {
		return fmt.Errorf("failed to get manifest-format flag: %w", err)
	}
	out, err := readDiagFlags(cmd)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.close()
	if err := s.readGenerateFlags(); err != nil {
		return err
	}
	if outPath == "" {
		outPath = s.cfg.ManifestPath()
	}
	fallback, err := manifest.ParseFormat(s.cfg.Output.ManifestFormat)
	if err != nil {
		return err
	}
	format := manifest.FormatForPath(outPath, fallback)
	if formatFlag != "" {
		if format, err = manifest.ParseFormat(formatFlag); err != nil {
			return err
		}
	}

	res, err := s.generate(cmd.Context(), args)
	if err != nil {
		return err
	}
	if err := s.report(res, out); err != nil {
		return err
	}

	done := s.timer.Track("manifest")
	defer done(string(format))
	m := res.Manifest(s.opts.ABI)
	for _, c := range m.Collisions() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: names %s fold to the same host identifier %q\n",
			strings.Join(c.Names, ", "), c.Key)
	}
	var buf bytes.Buffer
	if err := manifest.Encode(&buf, m, format); err != nil {
		return err
	}
	if outPath == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil { // #nosec G306
		return fmt.Errorf("manifest: %w", err)
	}
	if !s.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d entries)\n", outPath, len(m.Entries))
	}
	return nil
}
