package buildtime

import (
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/opst/jobtemplate/pkg/buildtime.version=v1.0.0".
var (
	version  string
	revision string
)

func init() {
	version = strings.TrimSpace(version)
	revision = strings.TrimSpace(revision)

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if version == "" {
		version = info.Main.Version
	}
	if revision == "" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				revision = s.Value
			}
		}
	}
}

// version string when this command has been built.
func VERSION() string {
	if version == "" {
		return "(devel)"
	}
	return version
}

func GIT_REVISION() string {
	if revision == "" {
		return "unknown"
	}
	return revision
}

func VersionString() string {
	return VERSION() + " (commit: " + GIT_REVISION() + ")"
}
