package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/wallclock/internal/clock"
	"github.com/BeatGlow/wallclock/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		entries []config.Schedule
		wantErr bool
	}{
		{"empty", nil, false},
		{"message", []config.Schedule{{Cron: "0 9 * * 1-5", Action: ActionMessage, Text: "standup"}}, false},
		{"descriptor", []config.Schedule{{Cron: "@hourly", Action: ActionClear}}, false},
		{"bad cron", []config.Schedule{{Cron: "every morning", Action: ActionClear}}, true},
		{"unknown action", []config.Schedule{{Cron: "@daily", Action: "reboot"}}, true},
		{"message without text", []config.Schedule{{Cron: "@daily", Action: ActionMessage}}, true},
		{"countdown without seconds", []config.Schedule{{Cron: "@daily", Action: ActionCountdown}}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := New(clock.NewState(640, 360), test.entries, time.UTC)
			if test.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(test.entries), s.Len())
		})
	}
}

func TestApply(t *testing.T) {
	state := clock.NewState(640, 360)
	s, err := New(state, nil, time.UTC)
	require.NoError(t, err)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Apply(config.Schedule{Action: ActionMessage, Text: "lunch", RGB: [3]int{255, 0, 0}, Flash: 500})
	snap := state.Snapshot()
	require.NotNil(t, snap.Message)
	assert.Equal(t, "lunch", snap.Message.Text)
	assert.Equal(t, clock.Red, snap.Message.Colour)
	assert.Equal(t, 90, snap.Message.Height)
	assert.Equal(t, 500*time.Millisecond, snap.Message.Flash)

	s.Apply(config.Schedule{Action: ActionCountdown, Seconds: 300})
	snap = state.Snapshot()
	require.NotNil(t, snap.Countdown)
	assert.Equal(t, now.Add(5*time.Minute), snap.Countdown.Until)

	s.Apply(config.Schedule{Action: ActionClear})
	snap = state.Snapshot()
	assert.Nil(t, snap.Message)
	assert.NotNil(t, snap.Countdown)
}

func TestRun(t *testing.T) {
	state := clock.NewState(640, 360)
	s, err := New(state, []config.Schedule{{Cron: "@every 1s", Action: ActionMessage, Text: "tick"}}, time.UTC)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return state.Snapshot().Message != nil
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
