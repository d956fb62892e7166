package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultOutputRoot = "build"
	outputExt         = ".mp4"
	maxVersion        = 999
)

// ResolveOutputPath returns explicit when set. Otherwise it picks
// <root>/<input-folder>/vNNN/<basename>.mp4 with the smallest NNN >= 1 whose
// file does not exist yet. NNN stops at 999.
func ResolveOutputPath(inputDir, explicit, root, basename string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if root == "" {
		root = DefaultOutputRoot
	}
	abs, err := filepath.Abs(inputDir)
	if err != nil {
		return "", fmt.Errorf("resolve input dir: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	source := filepath.Base(abs)
	if source == string(filepath.Separator) || source == "." {
		source = "input"
	}
	name := strings.TrimSpace(basename)
	if name == "" {
		name = source
	}

	for v := 1; v <= maxVersion; v++ {
		p := filepath.Join(root, source, fmt.Sprintf("v%03d", v), name+outputExt)
		_, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
	}
	return "", fmt.Errorf("resolve output path: all versions up to v%03d of %s are taken", maxVersion, filepath.Join(root, source))
}
