// Package version reports build information for the binaries.
package version

import "runtime/debug"

// BuildInfo holds version information about the build.
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
}

// Info returns the build information. Version, commit and date are set with
// -ldflags "-X covidsignal/internal/core/version.version=v0.1.0 ..."; when
// commit is unset the vcs revision stamped by the toolchain is used
func Info() BuildInfo {
	bi := BuildInfo{
		Service: Service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		bi.Go = info.GoVersion
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && bi.Commit == "none" && len(s.Value) >= 7:
				bi.Commit = s.Value[:7]
			case s.Key == "vcs.time" && bi.Date == "unknown":
				bi.Date = s.Value
			}
		}
	}
	return bi
}

// Service is the name reported by every binary
const Service = "covidsignal"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
