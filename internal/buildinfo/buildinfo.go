// Package buildinfo exposes version data injected with -ldflags, e.g.
//
//	-X github.com/fitcoach/perfmon/internal/buildinfo.BuildVersion=v1.2.0
package buildinfo

import "go.uber.org/zap"

var (
	BuildVersion string
	BuildDate    string
	BuildCommit  string
)

// Info is the build data with unset fields reported as "N/A".
type Info struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func Get() Info {
	return Info{
		Version: orNA(BuildVersion),
		Date:    orNA(BuildDate),
		Commit:  orNA(BuildCommit),
	}
}

// Log writes the build data at info level.
func Log(logger *zap.SugaredLogger) {
	i := Get()
	logger.Infow("build info", "version", i.Version, "date", i.Date, "commit", i.Commit)
}
