package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Overridden at release time via -ldflags "-X ...". When left empty the
// commit and build time fall back to what the toolchain stamped into the
// binary.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Short returns the bare version number.
func Short() string {
	return Version
}

// Full returns the one-line banner printed by the version command.
func Full() string {
	commit, built := Commit, BuildTime
	if commit == "" || built == "" {
		c, b := vcsInfo()
		if commit == "" {
			commit = c
		}
		if built == "" {
			built = b
		}
	}
	if commit == "" {
		commit = "unknown"
	}
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("yuqueback %s (commit: %s, built: %s, %s %s/%s)",
		Version, commit, built, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func vcsInfo() (commit, built string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			commit = s.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case "vcs.time":
			built = s.Value
		}
	}
	return commit, built
}
