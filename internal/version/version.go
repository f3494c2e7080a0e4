// In file: internal/version/version.go

// Package version carries the build metadata shared by the gateway and MCP binaries.
//
// The values are stamped at link time:
//
//	go build -ldflags "-X github.com/dileep-u-k/weather-agent/internal/version.version=v1.2.0 \
//	  -X github.com/dileep-u-k/weather-agent/internal/version.gitCommit=$(git rev-parse --short HEAD) \
//	  -X github.com/dileep-u-k/weather-agent/internal/version.buildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import (
	"fmt"
	"runtime"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// BuildInfo is reported by /healthz and in the MCP server handshake.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func Get() BuildInfo {
	return BuildInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders a one-line banner for startup logs.
func (b BuildInfo) String() string {
	return fmt.Sprintf("Version: %s | Commit: %s | Built: %s | %s %s", b.Version, b.GitCommit, b.BuildDate, b.GoVersion, b.Platform)
}
