// SPDX-License-Identifier: MIT
//
// Package build holds metadata embedded into the binary at compile time with
// linker flags: the application name, build timestamp, Git commit hash and
// semantic version. It is shown by --version and logged at startup.
//
//	go build -ldflags "-X noisemask/pkg/build.buildName=noisemask \
//	  -X noisemask/pkg/build.buildTime=$(date -u +%FT%TZ) \
//	  -X noisemask/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	  -X noisemask/pkg/build.buildVersion=$(git describe --tags)"
package build

import "fmt"

// Description is the one-line summary shown in help output.
const Description = "Record the room, then play a noise mask that follows the system volume"

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation. Development builds keep the defaults below.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:    "noisemask",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. It returns an error naming the first missing
// flag and leaves the defaults in place.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String formats the version line, e.g. "v1.2.0 (abc1234, 2025-04-13)".
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s (%s, %s)", f.Version, f.Commit, f.Time)
}
