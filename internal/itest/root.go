//go:build integration

package itest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

const modulePath = "github.com/forPelevin/img2vid"

// findRepoRoot walks up from the working directory to the go.mod that
// declares the img2vid module, so `go run ./cmd/img2vid` resolves.
func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	start := wd
	for {
		b, err := os.ReadFile(filepath.Join(wd, "go.mod"))
		if err == nil && bytes.Contains(b, []byte("module "+modulePath+"\n")) {
			if _, err := os.Stat(filepath.Join(wd, "cmd", "img2vid")); err == nil {
				return wd, nil
			}
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return "", fmt.Errorf("no go.mod for %s above %s", modulePath, start)
		}
		wd = parent
	}
}
