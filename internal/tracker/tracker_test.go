package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/albiongw/goodwill/internal/database/models"
)

var errStore = errors.New("store unavailable")

// fakeSessionStore keeps sessions in memory with the same semantics as the
// database repository.
type fakeSessionStore struct {
	sessions []*models.VoiceSession
	nextID   int64
}

func (f *fakeSessionStore) active(userID, guildID uint64) *models.VoiceSession {
	for _, s := range f.sessions {
		if s.IsActive && s.UserID == userID && s.GuildID == guildID {
			return s
		}
	}
	return nil
}

func (f *fakeSessionStore) GetActive(_ context.Context, userID, guildID uint64) (*models.VoiceSession, error) {
	return f.active(userID, guildID), nil
}

func (f *fakeSessionStore) Insert(_ context.Context, session *models.VoiceSession) error {
	f.nextID++
	session.ID = f.nextID
	f.sessions = append(f.sessions, session)
	return nil
}

func (f *fakeSessionStore) CloseActive(_ context.Context, userID, guildID uint64) (*models.VoiceSession, error) {
	session := f.active(userID, guildID)
	if session == nil {
		return nil, nil
	}
	snapshot := *session
	session.IsActive = false
	return &snapshot, nil
}

func (f *fakeSessionStore) UpdateStatus(
	_ context.Context, userID, guildID uint64,
	isAfk, isMutedOrDeafened bool, channelID uint64, now time.Time,
) error {
	session := f.active(userID, guildID)
	if session == nil {
		return nil
	}
	session.IsAfk = isAfk
	session.IsMutedOrDeafened = isMutedOrDeafened
	session.ChannelID = channelID
	session.LastStatusChange = now
	return nil
}

func (f *fakeSessionStore) GetStale(_ context.Context, cutoff time.Time) ([]*models.VoiceSession, error) {
	var stale []*models.VoiceSession
	for _, s := range f.sessions {
		if s.IsActive && s.LastStatusChange.Before(cutoff) {
			stale = append(stale, s)
		}
	}
	return stale, nil
}

func (f *fakeSessionStore) GetAllActive(_ context.Context) ([]*models.VoiceSession, error) {
	var open []*models.VoiceSession
	for _, s := range f.sessions {
		if s.IsActive {
			open = append(open, s)
		}
	}
	return open, nil
}

func (f *fakeSessionStore) activeCount(userID, guildID uint64) int {
	count := 0
	for _, s := range f.sessions {
		if s.IsActive && s.UserID == userID && s.GuildID == guildID {
			count++
		}
	}
	return count
}

// fakeActivityStore records increments and sums the buckets.
type fakeActivityStore struct {
	increments []*models.ActivityIncrement
	err        error
}

func (f *fakeActivityStore) Add(_ context.Context, inc *models.ActivityIncrement) error {
	if f.err != nil {
		return f.err
	}
	f.increments = append(f.increments, inc)
	return nil
}

func (f *fakeActivityStore) totals() (voice, afk, muted int64) {
	for _, inc := range f.increments {
		voice += inc.VoiceSeconds
		afk += inc.AfkSeconds
		muted += inc.MutedSeconds
	}
	return voice, afk, muted
}

// fakeSettings serves one settings row per guild.
type fakeSettings struct {
	afkChannelID uint64
	err          error
}

func (f *fakeSettings) GetGuildSettings(_ context.Context, guildID uint64) (*models.GuildSetting, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.GuildSetting{
		GuildID:      guildID,
		AfkChannelID: f.afkChannelID,
		WeekStart:    int(time.Monday),
	}, nil
}

type fixture struct {
	tracker  *Tracker
	sessions *fakeSessionStore
	activity *fakeActivityStore
	settings *fakeSettings
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		sessions: &fakeSessionStore{},
		activity: &fakeActivityStore{},
		settings: &fakeSettings{afkChannelID: 999},
		clock:    time.Date(2025, 8, 20, 18, 0, 0, 0, time.UTC),
	}
	f.tracker = New(f.sessions, f.activity, f.settings, Config{}, zap.NewNop())
	f.tracker.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func state(channelID uint64, opts ...func(*VoiceState)) *VoiceState {
	s := &VoiceState{
		UserID:      42,
		GuildID:     7,
		Username:    "ragnar",
		ChannelID:   channelID,
		ChannelName: "roads",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func muted(s *VoiceState) { s.SelfMute = true }

func afkChannel(s *VoiceState) {
	s.ChannelID = 999
	s.ChannelName = "AFK lounge"
}

func TestJoinThenLeaveCreditsActiveVoice(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.tracker.HandleVoiceState(ctx, nil, state(100))
	f.advance(10 * time.Minute)
	f.tracker.HandleVoiceState(ctx, state(100), state(0))

	voice, afk, mutedSec := f.activity.totals()
	assert.Equal(t, int64(600), voice)
	assert.Zero(t, afk)
	assert.Zero(t, mutedSec)
	assert.Equal(t, 0, f.sessions.activeCount(42, 7))
}

func TestShortSessionIsDiscarded(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.tracker.HandleVoiceState(ctx, nil, state(100))
	f.advance(4 * time.Minute)
	f.tracker.HandleVoiceState(ctx, state(100), state(0))

	assert.Empty(t, f.activity.increments)
	assert.Equal(t, 0, f.sessions.activeCount(42, 7))
}

func TestLongAfkNeverCountsAsVoice(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.tracker.HandleVoiceState(ctx, nil, state(0, afkChannel))
	f.advance(20 * time.Minute)
	f.tracker.HandleVoiceState(ctx, state(0, afkChannel), state(0))

	voice, afk, mutedSec := f.activity.totals()
	assert.Zero(t, voice, "long-AFK segments must not count as active voice")
	assert.Equal(t, int64(1200), afk)
	assert.Zero(t, mutedSec)
}

func TestStatusChangeSplitsSegments(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// Join unmuted, self-mute after 5 minutes, leave 10 minutes later.
	f.tracker.HandleVoiceState(ctx, nil, state(100))
	f.advance(5 * time.Minute)
	f.tracker.HandleVoiceState(ctx, state(100), state(100, muted))
	f.advance(10 * time.Minute)
	f.tracker.HandleVoiceState(ctx, state(100, muted), state(0))

	voice, afk, mutedSec := f.activity.totals()
	assert.Equal(t, int64(300), voice)
	assert.Zero(t, afk)
	assert.Equal(t, int64(600), mutedSec)
}

func TestStatusChangeSegmentsHaveNoMinimum(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// A 30 second segment ended by a status change still counts because the
	// user remained in voice.
	f.tracker.HandleVoiceState(ctx, nil, state(100))
	f.advance(30 * time.Second)
	f.tracker.HandleVoiceState(ctx, state(100), state(100, muted))

	voice, _, _ := f.activity.totals()
	assert.Equal(t, int64(30), voice)
}

func TestMutedAfkFeedsBothBuckets(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.tracker.HandleVoiceState(ctx, nil, state(0, afkChannel, muted))
	f.advance(10 * time.Minute)
	f.tracker.HandleVoiceState(ctx, state(0, afkChannel, muted), state(0))

	voice, afk, mutedSec := f.activity.totals()
	assert.Zero(t, voice)
	assert.Equal(t, int64(600), afk)
	assert.Equal(t, int64(600), mutedSec)
}

func TestRejoinClosesPriorSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// Two joins with no leave in between: the second open must defensively
	// close the first so at most one session stays active.
	f.tracker.HandleVoiceState(ctx, nil, state(100))
	f.advance(10 * time.Minute)
	f.tracker.HandleVoiceState(ctx, nil, state(200))

	assert.Equal(t, 1, f.sessions.activeCount(42, 7))

	voice, _, _ := f.activity.totals()
	assert.Equal(t, int64(600), voice, "defensive close credits the first session")
}

func TestLeaveWithoutSessionIsNoOp(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.tracker.HandleVoiceState(ctx, state(100), state(0))

	assert.Empty(t, f.activity.increments)
	assert.Empty(t, f.sessions.sessions)
}

func TestSettingsFailureDoesNotBlockTracking(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.settings.err = errStore
	ctx := context.Background()

	f.tracker.HandleVoiceState(ctx, nil, state(100))
	f.advance(10 * time.Minute)
	f.tracker.HandleVoiceState(ctx, state(100), state(0))

	voice, _, _ := f.activity.totals()
	assert.Equal(t, int64(600), voice)
}

func TestReapStale(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.tracker.HandleVoiceState(ctx, nil, state(100))

	// Two hours of silence is not stale yet.
	f.advance(2 * time.Hour)
	f.tracker.ReapStale(ctx)
	assert.Equal(t, 1, f.sessions.activeCount(42, 7))
	assert.Empty(t, f.activity.increments)

	// Past the 12 hour threshold the session is closed and credited.
	f.advance(11 * time.Hour)
	f.tracker.ReapStale(ctx)
	assert.Equal(t, 0, f.sessions.activeCount(42, 7))

	voice, _, _ := f.activity.totals()
	assert.Equal(t, int64(13*3600), voice)
}

func TestReconcileOpensAndCloses(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// An open session for a user who is no longer in voice, and a live user
	// with no session.
	f.tracker.HandleVoiceState(ctx, nil, state(100))
	f.advance(10 * time.Minute)

	liveUser := state(300)
	liveUser.UserID = 77
	f.tracker.Reconcile(ctx, []*VoiceState{liveUser})

	assert.Equal(t, 0, f.sessions.activeCount(42, 7), "unmatched session closed")
	assert.Equal(t, 1, f.sessions.activeCount(77, 7), "untracked live user opened")

	voice, _, _ := f.activity.totals()
	assert.Equal(t, int64(600), voice)
}

func TestReconcileIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	live := state(300)
	f.tracker.Reconcile(ctx, []*VoiceState{live})

	require.Equal(t, 1, f.sessions.activeCount(42, 7))
	sessionsAfterFirst := len(f.sessions.sessions)
	incrementsAfterFirst := len(f.activity.increments)

	f.tracker.Reconcile(ctx, []*VoiceState{live})

	assert.Len(t, f.sessions.sessions, sessionsAfterFirst, "second sweep must not open sessions")
	assert.Len(t, f.activity.increments, incrementsAfterFirst, "second sweep must not credit durations")
	assert.Equal(t, 1, f.sessions.activeCount(42, 7))
}

func TestClassifyTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		oldState *VoiceState
		newState *VoiceState
		expected Kind
	}{
		{"join from nil", nil, state(100), KindJoin},
		{"join from zero channel", state(0), state(100), KindJoin},
		{"leave to nil", state(100), nil, KindLeave},
		{"leave to zero channel", state(100), state(0), KindLeave},
		{"move between channels", state(100), state(200), KindStatusChange},
		{"mute toggle in place", state(100), state(100, muted), KindStatusChange},
		{"no voice on either side", state(0), state(0), KindNone},
		{"both nil", nil, nil, KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ClassifyTransition(tt.oldState, tt.newState))
		})
	}
}
