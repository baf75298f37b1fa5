package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Build-time identity, overridden via -ldflags.
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetFullVersion renders the version with its build metadata, as shown in the
// status endpoint and in crash reports.
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

// LoadVersionFromFile overlays Version with the contents of a .version file
// sitting next to the executable, when one exists. Deployments drop that file
// beside the binary so a release can be re-stamped without rebuilding.
func LoadVersionFromFile() string {
	exePath, err := os.Executable()
	if err != nil {
		return Version
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(exePath), ".version"))
	if err != nil {
		return Version
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		Version = v
	}
	return Version
}
