package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the version report printed by `chatstream version`.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// Get returns the version of the running binary.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

// IsRelease reports whether the binary was built from a tagged version.
func (i Info) IsRelease() bool {
	return i.Version != "dev" && !i.Dirty && !strings.Contains(i.Version, "dirty")
}

// Short returns "version" or "version-commit".
func (i Info) Short() string {
	if i.GitCommit == "" {
		return i.Version
	}
	if i.Dirty {
		return fmt.Sprintf("%s-%s-dirty", i.Version, i.GitCommit)
	}
	return fmt.Sprintf("%s-%s", i.Version, i.GitCommit)
}

func (i Info) String() string {
	s := fmt.Sprintf("chatstream %s (%s, %s)", i.Short(), i.GoVersion, i.Platform)
	if i.BuildTime != "" {
		s += " built " + i.BuildTime
	}
	return s
}

// UserAgent returns the User-Agent header sent to the playground backend.
func UserAgent() string {
	return "chatstream/" + Get().Short()
}
