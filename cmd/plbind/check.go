package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"plbind/internal/directive"
	"plbind/internal/driver"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.go|directory>...",
	Short: "Validate annotated declarations without writing anything",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	addGenerateFlags(checkCmd)
	addDiagFlags(checkCmd, "pretty")
}

func runCheck(cmd *cobra.Command, args []string) error {
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
	res, err := s.generate(cmd.Context(), args)
	if err != nil {
		return err
	}
	if !s.quiet && out.format == "pretty" {
		writeCheckSummary(cmd.ErrOrStderr(), res)
	}
	return s.report(res, out)
}

var summaryIntents = []directive.Intent{
	directive.IntentExport,
	directive.IntentRecord,
	directive.IntentOpaque,
	directive.IntentPlatypus,
}

// writeCheckSummary prints one line per intent, e.g. "export: 3 (1 rejected)".
func writeCheckSummary(w io.Writer, res *driver.Result) {
	counts := res.Registry.Counts()
	rejected := res.Registry.Rejected()
	var parts []string
	for _, in := range summaryIntents {
		n := counts[in]
		if n == 0 {
			continue
		}
		part := fmt.Sprintf("%s: %d", in.Directive(), n)
		if r := rejected[in]; r > 0 {
			part += fmt.Sprintf(" (%d rejected)", r)
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		fmt.Fprintf(w, "checked %d files: no annotated declarations\n", len(res.Files))
		return
	}
	fmt.Fprintf(w, "checked %d files: %s\n", len(res.Files), strings.Join(parts, ", "))
}
