package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultExecutablePath returns the conventional location of the llama-cli
// binary inside a BitNet build tree. On Windows the Release subdirectory is
// preferred when it exists.
func DefaultExecutablePath() string {
	buildDir := "build"
	if runtime.GOOS == "windows" {
		exe := filepath.Join(buildDir, "bin", "Release", "llama-cli.exe")
		if _, err := os.Stat(exe); err == nil {
			return exe
		}
	}
	return filepath.Join(buildDir, "bin", "llama-cli")
}
