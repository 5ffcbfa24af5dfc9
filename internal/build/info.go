// Package build provides build-time information injected via ldflags.
package build

import "runtime"

// Info holds build-time information injected via ldflags.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
}

// New fills an Info, defaulting unset fields.
func New(version, commit, date string) Info {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return Info{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
		GoVersion: runtime.Version(),
	}
}

// RepoURL returns the project repository URL.
func RepoURL() string {
	return "https://github.com/cromfel/go-mpv"
}
