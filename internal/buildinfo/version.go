// Package buildinfo reports the dumpbot version from Go build metadata.
package buildinfo

import (
	"runtime/debug"
)

// Info describes the running binary.
type Info struct {
	Version   string
	Revision  string
	Modified  bool
	GoVersion string
}

// Version returns the module version for tagged installs, or a
// "dev-<hash>[-dirty]" pseudo-version for local builds. It returns
// "unknown" when build info is unavailable.
func Version() string {
	return Read().Version
}

// Read collects the build metadata of the running binary.
func Read() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{Version: "unknown"}
	}
	return fromBuildInfo(bi)
}

func fromBuildInfo(bi *debug.BuildInfo) Info {
	info := Info{GoVersion: bi.GoVersion}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}

	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
		return info
	}

	if info.Revision == "" {
		info.Version = "dev"
		return info
	}
	short := info.Revision
	if len(short) > 12 {
		short = short[:12]
	}
	info.Version = "dev-" + short
	if info.Modified {
		info.Version += "-dirty"
	}
	return info
}
