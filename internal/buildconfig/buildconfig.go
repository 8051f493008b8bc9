package buildconfig

import (
	"fmt"
	"runtime"
)

// Build-time variables injected via ldflags:
//
//	-X github.com/bierlingm/worldview-extractor/internal/buildconfig.version=v0.3.0
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo returns full version information
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    version,
		"commit":     commit,
		"build_date": date,
		"go_version": runtime.Version(),
	}
}

// String is the one-line form printed by `wve version`.
func String() string {
	return fmt.Sprintf("wve %s (commit %s, built %s, %s)", version, commit, date, runtime.Version())
}
