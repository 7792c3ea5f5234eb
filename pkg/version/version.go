// Package version exposes build metadata for the geoscout binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build metadata, overridden at link time:
//
//	go build -ldflags "-X github.com/NERVsystems/geoscout/pkg/version.BuildVersion=v1.2.0"
var (
	BuildVersion = "dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// Info returns build metadata as a flat map for health endpoints and
// metric labels.
func Info() map[string]string {
	return map[string]string{
		"version":    BuildVersion,
		"commit":     Commit(),
		"build_date": BuildDate,
		"go_version": runtime.Version(),
	}
}

// Commit returns the linked commit hash, falling back to the VCS
// revision the Go toolchain embeds when building from a checkout.
func Commit() string {
	if BuildCommit != "unknown" {
		return BuildCommit
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return BuildCommit
}

// String renders a one-line version banner for --version output.
func String() string {
	return fmt.Sprintf("geoscout %s (commit %s, built %s, %s)",
		BuildVersion, Commit(), BuildDate, runtime.Version())
}
