package images

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forPelevin/img2vid/internal/types"
)

var supported = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

// SupportedExtensions returns the accepted extensions in sorted order.
func SupportedExtensions() []string {
	out := make([]string, 0, len(supported))
	for ext := range supported {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func IsSupported(path string) bool {
	_, ok := supported[strings.ToLower(filepath.Ext(path))]
	return ok
}

// List returns the supported regular files in dir sorted by name.
func List(dir string) ([]string, error) {
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, types.Errorf(types.InvalidConfig, "input directory not found: %s", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var out []string
	for _, e := range entries {
		if !IsSupported(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		// Type() does not follow symlinks; stat does.
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, types.Errorf(types.EmptyInput,
			"no supported images found in %s. Supported extensions: %v", dir, SupportedExtensions())
	}
	sort.Strings(out)
	return out, nil
}

// Size reads only the image header.
func Size(path string) (types.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Size{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return types.Size{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return types.Size{Width: cfg.Width, Height: cfg.Height}, nil
}
