package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassifySegment(t *testing.T) {
	t.Parallel()

	afkTimeout := 15 * time.Minute

	tests := []struct {
		name     string
		duration time.Duration
		isAfk    bool
		isMuted  bool
		expected Buckets
	}{
		{
			name:     "active segment",
			duration: 10 * time.Minute,
			expected: Buckets{Voice: 10 * time.Minute},
		},
		{
			name:     "muted segment",
			duration: 10 * time.Minute,
			isMuted:  true,
			expected: Buckets{Muted: 10 * time.Minute},
		},
		{
			name:     "short afk still counts as voice",
			duration: 10 * time.Minute,
			isAfk:    true,
			expected: Buckets{Voice: 10 * time.Minute, Afk: 10 * time.Minute},
		},
		{
			name:     "long afk zeroes voice",
			duration: 20 * time.Minute,
			isAfk:    true,
			expected: Buckets{Afk: 20 * time.Minute},
		},
		{
			name:     "afk exactly at timeout zeroes voice",
			duration: afkTimeout,
			isAfk:    true,
			expected: Buckets{Afk: afkTimeout},
		},
		{
			name:     "muted and afk feed both buckets",
			duration: 20 * time.Minute,
			isAfk:    true,
			isMuted:  true,
			expected: Buckets{Afk: 20 * time.Minute, Muted: 20 * time.Minute},
		},
		{
			name:     "zero duration",
			duration: 0,
			expected: Buckets{},
		},
		{
			name:     "negative duration from clock skew",
			duration: -time.Minute,
			isAfk:    true,
			expected: Buckets{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ClassifySegment(tt.duration, tt.isAfk, tt.isMuted, afkTimeout))
		})
	}
}

func TestAddSegmentSkipsNonPositiveDurations(t *testing.T) {
	t.Parallel()

	store := &fakeActivityStore{}
	acc := NewAccumulator(store, DefaultAfkTimeout, zap.NewNop())
	now := time.Date(2025, 8, 20, 18, 0, 0, 0, time.UTC)

	acc.AddSegment(context.Background(), 1, 2, "u", 0, false, false, now, time.Monday)
	acc.AddSegment(context.Background(), 1, 2, "u", -time.Second, false, false, now, time.Monday)

	assert.Empty(t, store.increments)
}

func TestAddSegmentSwallowsStoreErrors(t *testing.T) {
	t.Parallel()

	store := &fakeActivityStore{err: errStore}
	acc := NewAccumulator(store, DefaultAfkTimeout, zap.NewNop())
	now := time.Date(2025, 8, 20, 18, 0, 0, 0, time.UTC)

	// Must not panic or propagate.
	acc.AddSegment(context.Background(), 1, 2, "u", time.Minute, false, false, now, time.Monday)
}

func TestAddSegmentStampsPeriodKeys(t *testing.T) {
	t.Parallel()

	store := &fakeActivityStore{}
	acc := NewAccumulator(store, DefaultAfkTimeout, zap.NewNop())

	// Wednesday evening; the week is keyed by Monday.
	end := time.Date(2025, 8, 20, 18, 30, 0, 0, time.UTC)
	acc.AddSegment(context.Background(), 1, 2, "u", 10*time.Minute, false, false, end, time.Monday)

	require.Len(t, store.increments, 1)
	inc := store.increments[0]
	assert.Equal(t, time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC), inc.Day)
	assert.Equal(t, time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC), inc.Week)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), inc.Month)
	assert.Equal(t, int64(600), inc.VoiceSeconds)
}

func TestAddMessage(t *testing.T) {
	t.Parallel()

	store := &fakeActivityStore{}
	acc := NewAccumulator(store, DefaultAfkTimeout, zap.NewNop())
	at := time.Date(2025, 8, 20, 18, 30, 0, 0, time.UTC)

	acc.AddMessage(context.Background(), 1, 2, "u", at, time.Monday)
	acc.AddMessage(context.Background(), 1, 2, "u", at, time.Monday)

	require.Len(t, store.increments, 2)
	assert.Equal(t, int64(1), store.increments[0].Messages)
	assert.Zero(t, store.increments[0].VoiceSeconds)
}
