package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveFlush(t *testing.T) {
	written, skipped := testutil.ToFloat64(StripesWritten), testutil.ToFloat64(StripesSkipped)
	ObserveFlush(3, 256)
	assert.Equal(t, written+3, testutil.ToFloat64(StripesWritten))
	assert.Equal(t, skipped+253, testutil.ToFloat64(StripesSkipped))
}

func TestCollectorsRegistered(t *testing.T) {
	Frames.WithLabelValues("clock").Inc()
	assert.GreaterOrEqual(t, testutil.CollectAndCount(Frames), 1)
	assert.Equal(t, 1, testutil.CollectAndCount(FrameSeconds))
}
