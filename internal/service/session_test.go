package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/badgerstore"
	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/service"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newSession(t *testing.T) (*service.Session, *clock) {
	t.Helper()
	db, err := badgerstore.Open(badgerstore.Config{Path: t.TempDir()}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return service.NewSession(badgerstore.NewStore(db), clk.Now), clk
}

func syncUser(t *testing.T, s *service.Session, identity string) *domain.User {
	t.Helper()
	u, err := s.SyncProfile(context.Background(), identity, service.SyncProfileRequest{
		Email:       identity + "@example.com",
		DisplayName: identity,
	})
	require.NoError(t, err)
	return u
}

func createMeeting(t *testing.T, s *service.Session, host string, capacity int) string {
	t.Helper()
	resp, err := s.CreateMeeting(context.Background(), host, service.CreateMeetingRequest{
		Title:           "standup",
		MaxParticipants: lo.ToPtr(capacity),
	})
	require.NoError(t, err)
	return resp.Token
}

func TestCreateMeeting(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	host := syncUser(t, s, "host")

	_, err := s.CreateMeeting(ctx, "", service.CreateMeetingRequest{Title: "x"})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = s.CreateMeeting(ctx, "ghost", service.CreateMeetingRequest{Title: "x"})
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.CreateMeeting(ctx, "host", service.CreateMeetingRequest{Title: ""})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	resp, err := s.CreateMeeting(ctx, "host", service.CreateMeetingRequest{
		Title:       "  weekly sync ",
		Description: lo.ToPtr("agenda"),
	})
	require.NoError(t, err)
	require.Len(t, resp.Token, 32)
	require.NotEmpty(t, resp.MeetingID)

	m, err := s.GetMeeting(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, "weekly sync", m.Title)
	require.Equal(t, host.ID, m.HostID)
	require.Equal(t, domain.DefaultMaxParticipants, m.MaxParticipants)
	require.True(t, m.IsActive)
	require.Nil(t, m.EndedAt)

	other, err := s.CreateMeeting(ctx, "host", service.CreateMeetingRequest{Title: "x", MaxParticipants: lo.ToPtr(1000)})
	require.NoError(t, err)
	require.NotEqual(t, resp.Token, other.Token)
	big, err := s.GetMeeting(ctx, other.Token)
	require.NoError(t, err)
	require.Equal(t, 50, big.MaxParticipants)

	_, err = s.GetMeeting(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrMeetingNotFound)
}

func TestJoinTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "host")
	syncUser(t, s, "alice")
	token := createMeeting(t, s, "host", 4)

	first, err := s.Join(ctx, "alice", token)
	require.NoError(t, err)
	require.False(t, first.AlreadyJoined)
	require.True(t, first.Participant.IsAudioEnabled)
	require.True(t, first.Participant.IsVideoEnabled)
	require.NotEmpty(t, first.Participant.PeerID)
	require.Equal(t, token, first.Meeting.Token)

	for i := 0; i < 2; i++ {
		again, err := s.Join(ctx, "alice", token)
		require.NoError(t, err)
		require.True(t, again.AlreadyJoined)
		require.Equal(t, first.Participant.ID, again.Participant.ID)
		require.Equal(t, first.Participant.PeerID, again.Participant.PeerID)
	}

	active, err := s.ListActive(ctx, token)
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestJoinFailures(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "host")
	token := createMeeting(t, s, "host", 2)

	_, err := s.Join(ctx, "", token)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = s.Join(ctx, "host", "missing")
	require.ErrorIs(t, err, domain.ErrMeetingNotFound)

	_, err = s.Join(ctx, "ghost", token)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, s.EndMeeting(ctx, "host", token))
	_, err = s.Join(ctx, "host", token)
	require.ErrorIs(t, err, domain.ErrMeetingNotFound)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestCapacityScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	for _, id := range []string{"host", "a", "b", "c"} {
		syncUser(t, s, id)
	}
	token := createMeeting(t, s, "host", 2)

	_, err := s.Join(ctx, "a", token)
	require.NoError(t, err)
	_, err = s.Join(ctx, "b", token)
	require.NoError(t, err)

	_, err = s.Join(ctx, "c", token)
	require.ErrorIs(t, err, domain.ErrMeetingFull)
	require.Equal(t, domain.KindMeetingFull, domain.KindOf(err))

	// a full meeting still lets an active member re-attach
	again, err := s.Join(ctx, "b", token)
	require.NoError(t, err)
	require.True(t, again.AlreadyJoined)

	require.NoError(t, s.Leave(ctx, "a", token))

	joined, err := s.Join(ctx, "c", token)
	require.NoError(t, err)
	require.False(t, joined.AlreadyJoined)

	active, err := s.ListActive(ctx, token)
	require.NoError(t, err)
	require.Len(t, active, 2)
}

func TestRejoinAfterLeaveCreatesNewRow(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "host")
	syncUser(t, s, "a")
	token := createMeeting(t, s, "host", 2)

	first, err := s.Join(ctx, "a", token)
	require.NoError(t, err)
	require.NoError(t, s.Leave(ctx, "a", token))

	active, err := s.ListActive(ctx, token)
	require.NoError(t, err)
	require.Empty(t, active)

	second, err := s.Join(ctx, "a", token)
	require.NoError(t, err)
	require.False(t, second.AlreadyJoined)
	require.NotEqual(t, first.Participant.ID, second.Participant.ID)
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "host")
	token := createMeeting(t, s, "host", 2)

	require.ErrorIs(t, s.Leave(ctx, "", token), domain.ErrUnauthenticated)
	require.ErrorIs(t, s.Leave(ctx, "host", "missing"), domain.ErrMeetingNotFound)

	// never joined, unknown identity: both are no-ops
	require.NoError(t, s.Leave(ctx, "host", token))
	require.NoError(t, s.Leave(ctx, "ghost", token))
}

func TestEndMeeting(t *testing.T) {
	ctx := context.Background()
	s, clk := newSession(t)
	syncUser(t, s, "host")
	syncUser(t, s, "guest")
	token := createMeeting(t, s, "host", 2)

	require.ErrorIs(t, s.EndMeeting(ctx, "", token), domain.ErrUnauthenticated)
	require.ErrorIs(t, s.EndMeeting(ctx, "host", "missing"), domain.ErrMeetingNotFound)

	err := s.EndMeeting(ctx, "guest", token)
	require.ErrorIs(t, err, domain.ErrForbidden)
	require.ErrorIs(t, s.EndMeeting(ctx, "ghost", token), domain.ErrForbidden)

	m, err := s.GetMeeting(ctx, token)
	require.NoError(t, err)
	require.True(t, m.IsActive)

	require.NoError(t, s.EndMeeting(ctx, "host", token))
	ended, err := s.GetMeeting(ctx, token)
	require.NoError(t, err)
	require.False(t, ended.IsActive)
	require.NotNil(t, ended.EndedAt)
	firstEnd := *ended.EndedAt

	clk.Advance(time.Minute)
	require.NoError(t, s.EndMeeting(ctx, "host", token))
	again, err := s.GetMeeting(ctx, token)
	require.NoError(t, err)
	require.False(t, again.IsActive)
	require.True(t, firstEnd.Equal(*again.EndedAt))

	require.ErrorIs(t, s.EndMeeting(ctx, "guest", token), domain.ErrForbidden)
}

func TestSignalAddressing(t *testing.T) {
	ctx := context.Background()
	s, clk := newSession(t)
	a := syncUser(t, s, "a")
	b := syncUser(t, s, "b")
	token := createMeeting(t, s, "a", 2)

	sig, err := s.SendSignal(ctx, "a", token, service.SendSignalRequest{To: b.ID, Type: domain.SignalOffer, Payload: "p1"})
	require.NoError(t, err)
	require.Equal(t, a.ID, sig.FromUserID)

	got, err := s.FetchSignals(ctx, "b", token)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p1", got[0].Payload)
	require.Equal(t, domain.SignalOffer, got[0].Type)

	got, err = s.FetchSignals(ctx, "a", token)
	require.NoError(t, err)
	require.Empty(t, got)

	clk.Advance(time.Second)
	_, err = s.SendSignal(ctx, "b", token, service.SendSignalRequest{To: a.ID, Type: domain.SignalAnswer, Payload: "p2"})
	require.NoError(t, err)

	got, err = s.FetchSignals(ctx, "a", token)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "p2", got[0].Payload)
	for _, sg := range got {
		require.Equal(t, a.ID, sg.ToUserID)
	}

	// read without consume
	got, err = s.FetchSignals(ctx, "b", token)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestSendSignalFailures(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "a")
	token := createMeeting(t, s, "a", 2)
	req := service.SendSignalRequest{To: "nobody-yet", Type: "offer", Payload: "sdp"}

	_, err := s.SendSignal(ctx, "", token, req)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = s.SendSignal(ctx, "a", "missing", req)
	require.ErrorIs(t, err, domain.ErrMeetingNotFound)

	_, err = s.SendSignal(ctx, "ghost", token, req)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = s.SendSignal(ctx, "a", token, service.SendSignalRequest{Type: "offer"})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	// recipients are not validated
	_, err = s.SendSignal(ctx, "a", token, req)
	require.NoError(t, err)
}

func TestFetchSignalsDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "a")
	token := createMeeting(t, s, "a", 2)

	for _, tc := range []struct {
		name, identity, token string
	}{
		{"unauthenticated", "", token},
		{"missing meeting", "a", "missing"},
		{"unknown user", "ghost", token},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.FetchSignals(ctx, tc.identity, tc.token)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Empty(t, got)
		})
	}
}

func TestFetchSignalsNewestFirstBounded(t *testing.T) {
	ctx := context.Background()
	s, clk := newSession(t)
	syncUser(t, s, "a")
	b := syncUser(t, s, "b")
	token := createMeeting(t, s, "a", 2)

	for i := 0; i < 60; i++ {
		clk.Advance(time.Millisecond)
		_, err := s.SendSignal(ctx, "a", token, service.SendSignalRequest{
			To: b.ID, Type: domain.SignalICECandidate, Payload: fmt.Sprintf("c%d", i),
		})
		require.NoError(t, err)
	}

	got, err := s.FetchSignals(ctx, "b", token)
	require.NoError(t, err)
	require.Len(t, got, 50)
	require.Equal(t, "c59", got[0].Payload)
	require.Equal(t, "c10", got[49].Payload)
	for i := 1; i < len(got); i++ {
		require.True(t, got[i-1].CreatedAt.After(got[i].CreatedAt))
	}
}

func TestPruneSignals(t *testing.T) {
	ctx := context.Background()
	s, clk := newSession(t)
	syncUser(t, s, "a")
	b := syncUser(t, s, "b")
	token := createMeeting(t, s, "a", 2)

	send := func(payload string) {
		_, err := s.SendSignal(ctx, "a", token, service.SendSignalRequest{To: b.ID, Type: "offer", Payload: payload})
		require.NoError(t, err)
	}

	send("t0")
	clk.Advance(2 * time.Minute)
	send("t2")
	clk.Advance(2 * time.Minute)
	send("t4")

	// now = t0+6m, cutoff = t0+1m
	clk.Advance(2 * time.Minute)
	n, err := s.PruneSignals(ctx, token, service.PruneSignalsRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	n, err = s.PruneSignals(ctx, token, service.PruneSignalsRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	// now = t0+7m, cutoff = t0+2m: the signal at the cutoff stays
	clk.Advance(time.Minute)
	n, err = s.PruneSignals(ctx, token, service.PruneSignalsRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	got, err := s.FetchSignals(ctx, "b", token)
	require.NoError(t, err)
	require.Equal(t, []string{"t4", "t2"}, lo.Map(got, func(sg domain.Signal, _ int) string { return sg.Payload }))

	n, err = s.PruneSignals(ctx, token, service.PruneSignalsRequest{Window: time.Minute})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = s.PruneSignals(ctx, "missing", service.PruneSignalsRequest{})
	require.ErrorIs(t, err, domain.ErrMeetingNotFound)

	_, err = s.PruneSignals(ctx, token, service.PruneSignalsRequest{Window: -time.Second})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUpdateMedia(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "a")
	token := createMeeting(t, s, "a", 2)

	_, err := s.UpdateMedia(ctx, "a", token, service.UpdateMediaRequest{Audio: lo.ToPtr(false)})
	require.ErrorIs(t, err, domain.ErrNotInMeeting)
	require.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = s.Join(ctx, "a", token)
	require.NoError(t, err)

	_, err = s.UpdateMedia(ctx, "a", token, service.UpdateMediaRequest{})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	p, err := s.UpdateMedia(ctx, "a", token, service.UpdateMediaRequest{Video: lo.ToPtr(false)})
	require.NoError(t, err)
	require.True(t, p.IsAudioEnabled)
	require.False(t, p.IsVideoEnabled)

	active, err := s.ListActive(ctx, token)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.False(t, active[0].IsVideoEnabled)
}

func TestSyncProfileRefreshes(t *testing.T) {
	ctx := context.Background()
	s, clk := newSession(t)

	_, err := s.SyncProfile(ctx, "", service.SyncProfileRequest{DisplayName: "x"})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = s.SyncProfile(ctx, "u1", service.SyncProfileRequest{DisplayName: "x", Email: "not-an-email"})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	first, err := s.SyncProfile(ctx, "u1", service.SyncProfileRequest{DisplayName: "Ann", Email: " Ann@Example.com "})
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", first.Email)

	clk.Advance(time.Hour)
	second, err := s.SyncProfile(ctx, "u1", service.SyncProfileRequest{DisplayName: "Ann B"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.True(t, first.CreatedAt.Equal(second.CreatedAt))
	require.True(t, second.LastActiveAt.After(first.LastActiveAt))
	require.Equal(t, "Ann B", second.DisplayName)
}

func TestListActiveUnknownMeeting(t *testing.T) {
	s, _ := newSession(t)
	got, err := s.ListActive(context.Background(), "missing")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "host")
	const users, capacity = 12, 3
	for i := 0; i < users; i++ {
		syncUser(t, s, fmt.Sprintf("u%d", i))
	}
	token := createMeeting(t, s, "host", capacity)

	errs := make([]error, users)
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Join(ctx, fmt.Sprintf("u%d", i), token)
		}(i)
	}
	wg.Wait()

	joined := 0
	for i, err := range errs {
		if err == nil {
			joined++
			continue
		}
		require.ErrorIs(t, err, domain.ErrMeetingFull, "u%d", i)
	}
	require.Equal(t, capacity, joined)

	active, err := s.ListActive(ctx, token)
	require.NoError(t, err)
	require.Len(t, active, capacity)
}

func TestConcurrentJoinsWithFreeSeatsAllSucceed(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "host")

	const rounds, users = 10, 8
	for round := 0; round < rounds; round++ {
		token := createMeeting(t, s, "host", 50)
		for i := 0; i < users; i++ {
			syncUser(t, s, fmt.Sprintf("r%d-u%d", round, i))
		}

		errs := make([]error, users)
		var wg sync.WaitGroup
		for i := 0; i < users; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.Join(ctx, fmt.Sprintf("r%d-u%d", round, i), token)
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "round %d user %d", round, i)
		}
		active, err := s.ListActive(ctx, token)
		require.NoError(t, err)
		require.Len(t, active, users)
	}
}

func TestConcurrentJoinsSameUserOneRow(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "host")
	syncUser(t, s, "a")
	token := createMeeting(t, s, "host", 8)

	const n = 10
	results := make([]*service.JoinResponse, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Join(ctx, "a", token)
		}(i)
	}
	wg.Wait()

	fresh := 0
	var participantID string
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		if !results[i].AlreadyJoined {
			fresh++
		}
		if participantID == "" {
			participantID = results[i].Participant.ID
		}
		require.Equal(t, participantID, results[i].Participant.ID)
	}
	require.Equal(t, 1, fresh)

	active, err := s.ListActive(ctx, token)
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestEndWhileJoining(t *testing.T) {
	ctx := context.Background()
	s, _ := newSession(t)
	syncUser(t, s, "host")
	const users = 8
	for i := 0; i < users; i++ {
		syncUser(t, s, fmt.Sprintf("u%d", i))
	}
	token := createMeeting(t, s, "host", 50)

	var (
		wg     sync.WaitGroup
		endErr error
		errs   = make([]error, users)
	)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Join(ctx, fmt.Sprintf("u%d", i), token)
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		endErr = s.EndMeeting(ctx, "host", token)
	}()
	wg.Wait()

	require.NoError(t, endErr)
	for i, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, domain.ErrMeetingNotFound, "u%d", i)
		}
	}
	m, err := s.GetMeeting(ctx, token)
	require.NoError(t, err)
	require.False(t, m.IsActive)
}
