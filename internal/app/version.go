package app

import (
	"fmt"
	"runtime"
)

// Build-time variables, set with
// -ldflags "-X github.com/tejashwikalptaru/tunesync/internal/app.Version=v1.2.0".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"commit"`
	BuildTime string `json:"built"`
	GoVersion string `json:"go"`
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// FullString returns a detailed version string for logging.
func (v VersionInfo) FullString() string {
	return fmt.Sprintf("tunesync %s (commit: %s, built: %s, %s)", v.Version, v.GitCommit, v.BuildTime, v.GoVersion)
}
