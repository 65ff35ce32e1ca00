// Package version provides centralized version management for swarmhammer.
// It supports semantic versioning, build-time injection, and report compatibility checks.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build information that can be set at compile time via -ldflags
var (
	// Version is the semantic version of the application
	Version = "0.3.0"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"

	// BuildDate is the date when the binary was built
	BuildDate = "unknown"
)

// Info represents comprehensive version information
type Info struct {
	Version   string          `json:"version"`
	GitCommit string          `json:"gitCommit"`
	BuildDate string          `json:"buildDate"`
	GoVersion string          `json:"goVersion"`
	Platform  string          `json:"platform"`
	SemVer    *semver.Version `json:"-"`
}

// GetVersion returns the current version string
func GetVersion() string {
	return Version
}

// GetInfo returns comprehensive version information
func GetInfo() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}

	return &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		SemVer:    sv,
	}, nil
}

// GetDetailedVersion returns detailed version information for debugging
func GetDetailedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("swarmhammer v%s (error: %v)", Version, err)
	}

	lines := []string{
		fmt.Sprintf("swarmhammer v%s", info.Version),
		fmt.Sprintf("Git Commit: %s", info.GitCommit),
		fmt.Sprintf("Build Date: %s", info.BuildDate),
	}
	if meta := info.SemVer.Metadata(); meta != "" {
		lines = append(lines, fmt.Sprintf("Build Metadata: %s", meta))
	}
	lines = append(lines, fmt.Sprintf("Go Version: %s", info.GoVersion))
	lines = append(lines, fmt.Sprintf("Platform: %s", info.Platform))

	return strings.Join(lines, "\n")
}

// Compatible reports whether an artifact written by version other (a saved
// campaign report, for instance) can be read by this build. Artifacts are
// readable within the same minor series while below 1.0, and within the same
// major series afterwards.
func Compatible(other string) (bool, error) {
	current, err := semver.NewVersion(Version)
	if err != nil {
		return false, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}

	var constraint string
	if current.Major() == 0 {
		constraint = fmt.Sprintf("~0.%d", current.Minor())
	} else {
		constraint = fmt.Sprintf("^%d", current.Major())
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}

	sv, err := semver.NewVersion(other)
	if err != nil {
		return false, fmt.Errorf("invalid version '%s': %w", other, err)
	}
	// Pre-release builds of the same series are accepted too.
	base, _ := sv.SetPrerelease("")
	return c.Check(&base), nil
}
