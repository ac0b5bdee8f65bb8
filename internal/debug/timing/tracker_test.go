package timing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecords(t *testing.T) {
	tr := NewTracker()

	ctx := tr.StartTiming(context.Background(), "compute")
	time.Sleep(2 * time.Millisecond)
	d := tr.EndTiming(ctx)

	assert.GreaterOrEqual(t, d, 2*time.Millisecond)
	timings := tr.GetTimings("compute")
	require.Len(t, timings, 1)
	assert.Equal(t, d, timings[0])
	assert.Equal(t, d, tr.GetAverageTime("compute"))
}

func TestTrackerKeepsParentValues(t *testing.T) {
	type key struct{}
	parent := context.WithValue(context.Background(), key{}, "run")

	tr := NewTracker()
	ctx := tr.StartTiming(parent, "load")
	assert.Equal(t, "run", ctx.Value(key{}))
}

func TestTrackerDisabled(t *testing.T) {
	tr := NewTracker()
	tr.SetEnabled(false)

	ctx := tr.StartTiming(context.Background(), "compute")
	assert.Zero(t, tr.EndTiming(ctx))
	assert.Nil(t, tr.GetTimings("compute"))
}

func TestTrackerEndWithoutStart(t *testing.T) {
	tr := NewTracker()
	assert.Zero(t, tr.EndTiming(context.Background()))
	assert.Zero(t, tr.GetAverageTime("missing"))
}

func TestTrackerGroupsByOperation(t *testing.T) {
	tr := NewTracker()
	for _, op := range []string{"a", "a", "b"} {
		tr.EndTiming(tr.StartTiming(context.Background(), op))
	}
	assert.Len(t, tr.GetAllTimings(), 2)
	assert.Len(t, tr.GetTimings("a"), 2)
	assert.Len(t, tr.GetTimings("b"), 1)
}
