package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := map[error]domain.Kind{
		nil:                        domain.KindNone,
		domain.ErrUnauthenticated:  domain.KindUnauthenticated,
		domain.ErrUserNotFound:     domain.KindUserNotFound,
		domain.ErrMeetingNotFound:  domain.KindNotFound,
		domain.ErrNotInMeeting:     domain.KindNotFound,
		domain.ErrForbidden:        domain.KindForbidden,
		domain.ErrMeetingFull:      domain.KindMeetingFull,
		domain.ErrInvalidArgument:  domain.KindInvalidArgument,
		domain.ErrConflict:         domain.KindConflict,
		errors.New("disk on fire"): domain.KindInternal,
	}
	for err, want := range cases {
		require.Equal(t, want, domain.KindOf(err), "%v", err)
	}

	wrapped := fmt.Errorf("join: %w", domain.ErrMeetingFull)
	require.Equal(t, domain.KindMeetingFull, domain.KindOf(wrapped))
}

func TestMeetingEndKeepsFirstTime(t *testing.T) {
	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	m := &domain.Meeting{IsActive: true}

	m.End(first)
	m.End(first.Add(time.Hour))

	require.False(t, m.IsActive)
	require.True(t, first.Equal(*m.EndedAt))
}

func TestNewMeetingToken(t *testing.T) {
	a, err := domain.NewMeetingToken()
	require.NoError(t, err)
	b, err := domain.NewMeetingToken()
	require.NoError(t, err)

	require.Len(t, a, 32)
	require.Regexp(t, "^[0-9a-f]{32}$", a)
	require.NotEqual(t, a, b)
}

func TestRetentionPolicy(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	p := domain.NewRetentionPolicy(0)
	require.Equal(t, domain.DefaultSignalRetention, p.Window)
	require.True(t, now.Add(-5*time.Minute).Equal(p.Cutoff(now)))

	atCutoff := domain.Signal{CreatedAt: now.Add(-5 * time.Minute)}
	older := domain.Signal{CreatedAt: now.Add(-5*time.Minute - time.Nanosecond)}
	require.False(t, p.Expired(atCutoff, now))
	require.True(t, p.Expired(older, now))

	require.Equal(t, time.Minute, domain.NewRetentionPolicy(time.Minute).Window)
}

func TestApplyMedia(t *testing.T) {
	p := &domain.Participant{IsAudioEnabled: true, IsVideoEnabled: true}
	off := false

	p.ApplyMedia(domain.MediaPatch{Video: &off})
	require.True(t, p.IsAudioEnabled)
	require.False(t, p.IsVideoEnabled)
}

func TestTrimPtrAndEmail(t *testing.T) {
	require.Nil(t, domain.TrimPtr(nil))
	blank := "   "
	require.Nil(t, domain.TrimPtr(&blank))
	v := " https://x/y.png "
	require.Equal(t, "https://x/y.png", *domain.TrimPtr(&v))

	require.Equal(t, "ann@example.com", domain.NormalizeEmail("  Ann@Example.COM "))
}
