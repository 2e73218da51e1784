package worker

import (
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iabalyuk/gorzdravbot/logging"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 1
}

func TestSweepOnce(t *testing.T) {
	sessions, pages := &countingSweeper{}, &countingSweeper{}
	sw, err := NewSweeper(time.Hour, map[string]Sweepable{"sessions": sessions, "buttons": pages},
		logging.NewWithWriter(io.Discard, "error"), nil)
	require.NoError(t, err)
	defer sw.Stop()

	sw.SweepOnce()
	assert.EqualValues(t, 1, sessions.calls.Load())
	assert.EqualValues(t, 1, pages.calls.Load())
}

func TestSweeperRunsOnSchedule(t *testing.T) {
	target := &countingSweeper{}
	sw, err := NewSweeper(20*time.Millisecond, map[string]Sweepable{"t": target},
		logging.NewWithWriter(io.Discard, "error"), nil)
	require.NoError(t, err)

	sw.Start()
	assert.Eventually(t, func() bool { return target.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, sw.Stop())
}

func TestSweeperRejectsBadInterval(t *testing.T) {
	_, err := NewSweeper(0, nil, nil, nil)
	assert.Error(t, err)
}
