package install

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestActor_Clone verifies that Clone returns an independent copy and handles nil.
func TestActor_Clone(t *testing.T) {
	t.Parallel()

	var nilActor *Actor
	require.Nil(t, nilActor.Clone())
	require.Equal(t, "<unknown>", nilActor.String())

	actor := &Actor{Hostname: "build-01", Username: "deployer"}
	cloned := actor.Clone()

	require.Equal(t, actor, cloned)
	require.NotSame(t, actor, cloned)
	require.Equal(t, "deployer@build-01", cloned.String())
}

// TestCountEntries checks warning and error tallies.
func TestCountEntries(t *testing.T) {
	t.Parallel()

	entries := []ContingencyEntry{
		{Level: LevelInfo, Message: "item added"},
		{Level: LevelWarning, Message: "item skipped"},
		{Level: LevelError, Message: "file locked"},
		{Level: LevelWarning, Message: "config merged"},
	}

	warnings, errors := CountEntries(entries)
	require.Equal(t, 2, warnings)
	require.Equal(t, 1, errors)
}

// TestFault_Error renders message and type.
func TestFault_Error(t *testing.T) {
	t.Parallel()

	f := &Fault{Message: "package not found", Type: "*fs.PathError"}
	require.Equal(t, "package not found(*fs.PathError)", f.Error())
}

// TestRecord_Duration ignores inverted timestamps.
func TestRecord_Duration(t *testing.T) {
	t.Parallel()

	start := time.Unix(100, 0)

	r := &Record{StartedAt: start, FinishedAt: start.Add(3 * time.Second)}
	require.Equal(t, 3*time.Second, r.Duration())

	r.FinishedAt = start.Add(-time.Second)
	require.Zero(t, r.Duration())
}
