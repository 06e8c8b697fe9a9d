package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/metrics"
	"github.com/cwrk-planet/meeting-service/internal/repository"
)

// Session is the public operation surface used by every transport.
// It owns no state of its own beyond its collaborators.
type Session struct {
	directory *Directory
	meetings  *MeetingService
	members   *MemberService
	signals   *SignalService
	notifier  Notifier
}

func NewSession(store *repository.Store, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		directory: NewDirectory(store.Users, now),
		meetings:  NewMeetingService(store.Meetings, now),
		members:   NewMemberService(store.Participants, now),
		signals:   NewSignalService(store.Signals, now),
		notifier:  nopNotifier{},
	}
}

func (s *Session) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	s.notifier = n
}

// ResolveUser maps the caller's identity to its directory record.
func (s *Session) ResolveUser(ctx context.Context, identity string) (*domain.User, error) {
	return s.directory.Resolve(ctx, identity)
}

func (s *Session) Meetings() *MeetingService { return s.meetings }
func (s *Session) Signals() *SignalService   { return s.signals }

// CreateMeeting registers a meeting hosted by the caller.
func (s *Session) CreateMeeting(ctx context.Context, identity string, req CreateMeetingRequest) (*CreateMeetingResponse, error) {
	host, err := s.directory.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var maxParticipants int
	if req.MaxParticipants != nil {
		maxParticipants = *req.MaxParticipants
	}

	m, err := s.meetings.Create(ctx, host, req.Title, req.Description, maxParticipants)
	if err != nil {
		slog.Error("meeting.create failed", slog.String("host_id", host.ID), slog.Any("err", err))
		return nil, err
	}
	metrics.MeetingsCreatedTotal.Inc()

	return &CreateMeetingResponse{MeetingID: m.ID, Token: m.Token}, nil
}

// GetMeeting needs no identity. Unknown tokens return domain.ErrMeetingNotFound.
func (s *Session) GetMeeting(ctx context.Context, token string) (*domain.Meeting, error) {
	return s.meetings.Get(ctx, token)
}

// Join attaches the caller to an active meeting, or returns the caller's
// existing active membership.
func (s *Session) Join(ctx context.Context, identity, token string) (*JoinResponse, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, domain.ErrUnauthenticated
	}

	m, err := s.meetings.Get(ctx, token)
	if err != nil {
		metrics.RecordJoin("not_found")
		return nil, err
	}
	if !m.IsActive {
		metrics.RecordJoin("not_found")
		return nil, domain.ErrMeetingNotFound
	}

	u, err := s.directory.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	p, already, err := s.members.Join(ctx, m, u)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrMeetingFull):
		metrics.RecordJoin("full")
		return nil, err
	case errors.Is(err, domain.ErrMeetingNotFound):
		metrics.RecordJoin("not_found")
		return nil, err
	case errors.Is(err, domain.ErrConflict):
		metrics.RecordJoin("conflict")
		slog.Warn("meeting.join retries exhausted", slog.String("token", m.Token), slog.String("user_id", u.ID))
		return nil, err
	default:
		metrics.RecordJoin("error")
		slog.Error("meeting.join failed", slog.String("token", m.Token), slog.Any("err", err))
		return nil, err
	}

	if already {
		metrics.RecordJoin("already_joined")
	} else {
		metrics.RecordJoin("joined")
		s.notifier.ParticipantJoined(m.Token, *p)
	}

	return &JoinResponse{Meeting: m, Participant: p, AlreadyJoined: already}, nil
}

// Leave is best effort: an unresolved identity or a missing membership is
// not an error once the meeting exists.
func (s *Session) Leave(ctx context.Context, identity, token string) error {
	if strings.TrimSpace(identity) == "" {
		return domain.ErrUnauthenticated
	}

	m, err := s.meetings.Get(ctx, token)
	if err != nil {
		return err
	}

	u, err := s.directory.Resolve(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}

	left, err := s.members.Leave(ctx, m, u)
	if err != nil {
		slog.Error("meeting.leave failed", slog.String("token", m.Token), slog.Any("err", err))
		return err
	}
	if left {
		metrics.LeavesTotal.Inc()
		s.notifier.ParticipantLeft(m.Token, u.ID)
	}
	return nil
}

// EndMeeting lets the host close the meeting. Repeated calls succeed.
func (s *Session) EndMeeting(ctx context.Context, identity, token string) error {
	if strings.TrimSpace(identity) == "" {
		return domain.ErrUnauthenticated
	}

	if _, err := s.meetings.Get(ctx, token); err != nil {
		return err
	}

	u, err := s.directory.Resolve(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrForbidden
		}
		return err
	}

	m, err := s.meetings.End(ctx, token, u)
	if err != nil {
		if !errors.Is(err, domain.ErrForbidden) && !errors.Is(err, domain.ErrMeetingNotFound) {
			slog.Error("meeting.end failed", slog.String("token", token), slog.Any("err", err))
		}
		return err
	}
	metrics.MeetingsEndedTotal.Inc()
	s.notifier.MeetingEnded(m.Token)

	return nil
}

// ListActive returns the active participants, empty for an unknown token.
func (s *Session) ListActive(ctx context.Context, token string) ([]domain.Participant, error) {
	m, err := s.meetings.Get(ctx, token)
	if errors.Is(err, domain.ErrMeetingNotFound) {
		return []domain.Participant{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.members.ListActive(ctx, m)
}

// SendSignal stores a signal from the caller to req.To.
func (s *Session) SendSignal(ctx context.Context, identity, token string, req SendSignalRequest) (*domain.Signal, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	m, err := s.meetings.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	from, err := s.directory.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	sig, err := s.signals.Send(ctx, m, from, req.To, req.Type, req.Payload)
	if err != nil {
		slog.Error("signal.send failed", slog.String("token", m.Token), slog.Any("err", err))
		return nil, err
	}
	metrics.RecordSignal(sig.Type)
	s.notifier.SignalSent(m.Token, *sig)

	return sig, nil
}

// FetchSignals is safe to poll: any resolution failure yields an empty list.
func (s *Session) FetchSignals(ctx context.Context, identity, token string) ([]domain.Signal, error) {
	empty := []domain.Signal{}
	if strings.TrimSpace(identity) == "" {
		return empty, nil
	}

	m, err := s.meetings.Get(ctx, token)
	if errors.Is(err, domain.ErrMeetingNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, err
	}

	u, err := s.directory.Resolve(ctx, identity)
	if errors.Is(err, domain.ErrUserNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, err
	}

	return s.signals.Fetch(ctx, m, u.ID)
}

// PruneSignals deletes the meeting's signals older than the window and
// reports how many were removed.
func (s *Session) PruneSignals(ctx context.Context, token string, req PruneSignalsRequest) (int64, error) {
	if err := validateRequest(req); err != nil {
		return 0, err
	}

	m, err := s.meetings.Get(ctx, token)
	if err != nil {
		return 0, err
	}

	n, err := s.signals.Prune(ctx, m, req.Window)
	if err != nil {
		slog.Error("signal.prune failed", slog.String("token", m.Token), slog.Any("err", err))
		return 0, err
	}
	metrics.RecordPruned(n)

	return n, nil
}

// SyncProfile creates or refreshes the caller's directory record.
func (s *Session) SyncProfile(ctx context.Context, identity string, req SyncProfileRequest) (*domain.User, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	u, err := s.directory.Sync(ctx, identity, Profile{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		slog.Error("user.sync failed", slog.Any("err", err))
		return nil, err
	}
	return u, nil
}

// UpdateMedia toggles the caller's audio/video flags in an active meeting.
func (s *Session) UpdateMedia(ctx context.Context, identity, token string, req UpdateMediaRequest) (*domain.Participant, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	m, err := s.meetings.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	u, err := s.directory.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	p, err := s.members.UpdateMedia(ctx, m, u, domain.MediaPatch{Audio: req.Audio, Video: req.Video})
	if err != nil {
		return nil, err
	}
	s.notifier.MediaChanged(m.Token, *p)

	return p, nil
}
