package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"plbind/internal/driver"
)

var genCmd = &cobra.Command{
	Use:   "gen [flags] <file.go|directory>...",
	Short: "Rewrite annotated declarations into their C-ABI form",
	Long: `Rewrite every //plbind:-annotated declaration. Without -w or -o the rewritten
files are printed to stdout. A file with any rejected declaration produces no
output; the other files are still processed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGen,
}

func init() {
	addGenerateFlags(genCmd)
	addDiagFlags(genCmd, "pretty")
	genCmd.Flags().BoolP("write", "w", false, "rewrite files in place")
	genCmd.Flags().StringP("out", "o", "", "write files under this directory (default: [output].dir of plbind.toml)")
}

func runGen(cmd *cobra.Command, args []string) error {
	inPlace, err := cmd.Flags().GetBool("write")
	if err != nil {
		return fmt.Errorf("failed to get write flag: %w", err)
	}
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	if inPlace && outDir != "" {
		return fmt.Errorf("-w and -o are mutually exclusive")
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
	if !inPlace && outDir == "" {
		outDir = s.cfg.OutputDir()
	}

	res, err := s.generate(cmd.Context(), args)
	if err != nil {
		return err
	}
	reportErr := s.report(res, out)

	done := s.timer.Track("write")
	defer done("")
	switch {
	case inPlace:
		err = writeAndList(s, res, "")
	case outDir != "":
		err = writeAndList(s, res, outDir)
	default:
		err = printOutputs(cmd.OutOrStdout(), res)
	}
	if err != nil {
		return err
	}
	return reportErr
}

func writeAndList(s *session, res *driver.Result, dir string) error {
	written, err := driver.WriteOutputs(res, dir)
	if err != nil {
		return err
	}
	if !s.quiet {
		for _, p := range written {
			fmt.Fprintf(s.cmd.ErrOrStderr(), "wrote %s\n", p)
		}
	}
	return nil
}

// printOutputs writes every changed file to w, each preceded by a header
// when more than one file changed.
func printOutputs(w io.Writer, res *driver.Result) error {
	var changed []*driver.FileResult
	for _, f := range res.Files {
		if f.OK() && f.Changed {
			changed = append(changed, f)
		}
	}
	for i, f := range changed {
		if len(changed) > 1 {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "// ==> %s <==\n", f.Path); err != nil {
				return err
			}
		}
		if _, err := w.Write(f.Output); err != nil {
			return err
		}
	}
	return nil
}
