package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"plbind/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a plbind.toml with the default naming contract",
	Long: `Create plbind.toml in [path] (default: the current directory). The file holds
the reserved alias identifier, the length type, the directive prefix and the
output settings. An existing file is kept unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing plbind.toml")
	initCmd.Flags().Bool("cgo", false, "set [output].cgo_import")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	cgo, err := cmd.Flags().GetBool("cgo")
	if err != nil {
		return err
	}

	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	target, err = filepath.Abs(target)
	if err != nil {
		return err
	}
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	cfg := project.Default()
	cfg.Output.CgoImport = cgo
	path, err := project.Write(target, cfg, force)
	if errors.Is(err, project.ErrConfigExists) {
		return fmt.Errorf("project already initialized: %s exists (use --force to overwrite)", path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	return nil
}
