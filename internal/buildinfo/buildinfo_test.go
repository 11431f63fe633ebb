package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGet_DefaultsAndSet(t *testing.T) {
	ov, od, oc := BuildVersion, BuildDate, BuildCommit
	t.Cleanup(func() { BuildVersion, BuildDate, BuildCommit = ov, od, oc })

	BuildVersion, BuildDate, BuildCommit = "", "", ""
	require.Equal(t, Info{Version: "N/A", Date: "N/A", Commit: "N/A"}, Get())

	BuildVersion, BuildDate, BuildCommit = "v1", "2025-09-06", "deadbeef"
	require.Equal(t, Info{Version: "v1", Date: "2025-09-06", Commit: "deadbeef"}, Get())
}

func TestLog(t *testing.T) {
	ov := BuildVersion
	t.Cleanup(func() { BuildVersion = ov })
	BuildVersion = "v2"

	core, logs := observer.New(zap.InfoLevel)
	Log(zap.New(core).Sugar())

	entries := logs.FilterMessage("build info").All()
	require.Len(t, entries, 1)
	require.Equal(t, "v2", entries[0].ContextMap()["version"])
}
