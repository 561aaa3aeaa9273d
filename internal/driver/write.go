package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"plbind/internal/source"
)

// WriteOutputs writes every changed file. With an empty dir files are
// rewritten in place; otherwise they land under dir at their path relative
// to the run's base directory. It returns the written paths.
func WriteOutputs(res *Result, dir string) ([]string, error) {
	var written []string
	for _, fr := range res.Files {
		if !fr.OK() || !fr.Changed {
			continue
		}
		dest := fr.Path
		if dir != "" {
			dest = filepath.Join(dir, outputName(res.FileSet, fr))
		}
		if err := writeFile(dest, fr.Output); err != nil {
			return written, err
		}
		written = append(written, dest)
	}
	return written, nil
}

func outputName(fs *source.FileSet, fr *FileResult) string {
	src := fs.Get(fr.FileID)
	if src == nil {
		return filepath.Base(fr.Path)
	}
	rel := filepath.FromSlash(src.FormatPath("relative", fs.BaseDir()))
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
		return filepath.Base(fr.Path)
	}
	return rel
}

// writeFile replaces path atomically, keeping the mode of an existing file.
func writeFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".plbind-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
