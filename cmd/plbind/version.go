package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"plbind/internal/abi"
	"plbind/internal/manifest"
	"plbind/internal/version"
)

// buildReport is what `plbind version` prints. The ABI and manifest fields
// let a binding generator check it was built against the same contract.
type buildReport struct {
	Tool            string `json:"tool"`
	Version         string `json:"version"`
	ABI             string `json:"abi"`
	ManifestVersion int    `json:"manifest_version"`
	Go              string `json:"go"`
	Module          string `json:"module,omitempty"`
	GitCommit       string `json:"git_commit,omitempty"`
	GitMessage      string `json:"git_message,omitempty"`
	BuildDate       string `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show plbind build information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "include commit, message and build date")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}
	rep := collectBuildReport(full)
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "pretty":
		writeBuildReport(cmd.OutOrStdout(), rep, full)
		return nil
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func collectBuildReport(full bool) buildReport {
	rep := buildReport{
		Tool:            "plbind",
		Version:         orUnknown(version.Version),
		ABI:             abi.Default().Fingerprint(),
		ManifestVersion: manifest.Version,
		Go:              runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		rep.Module = bi.Main.Path + "@" + bi.Main.Version
	}
	if full {
		rep.GitCommit = orUnknown(version.GitCommit)
		rep.GitMessage = orUnknown(version.GitMessage)
		rep.BuildDate = orUnknown(version.BuildDate)
	}
	return rep
}

func writeBuildReport(out io.Writer, rep buildReport, full bool) {
	fmt.Fprintln(out, version.Styled())
	fmt.Fprintf(out, "abi:      %s (manifest v%d)\n", rep.ABI, rep.ManifestVersion)
	fmt.Fprintf(out, "go:       %s\n", rep.Go)
	if rep.Module != "" {
		fmt.Fprintf(out, "module:   %s\n", rep.Module)
	}
	if full {
		fmt.Fprintf(out, "commit:   %s\n", rep.GitCommit)
		fmt.Fprintf(out, "message:  %s\n", rep.GitMessage)
		fmt.Fprintf(out, "built:    %s\n", rep.BuildDate)
	}
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
