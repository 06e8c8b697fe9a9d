package service

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/metrics"
	"github.com/cwrk-planet/meeting-service/internal/repository"

	"github.com/google/uuid"
)

const defaultJoinAttempts = 3

type MemberService struct {
	participants repository.ParticipantRepository
	now          func() time.Time

	joinAttempts int
}

func NewMemberService(participants repository.ParticipantRepository, now func() time.Time) *MemberService {
	if now == nil {
		now = time.Now
	}
	return &MemberService{
		participants: participants,
		now:          now,
		joinAttempts: defaultJoinAttempts,
	}
}

// Join attaches user to meeting. An existing active membership is returned
// as is with alreadyJoined=true. Both backends serialise joins per meeting,
// so ErrConflict only comes from a writer outside this process; it is
// retried a bounded number of times.
func (s *MemberService) Join(ctx context.Context, m *domain.Meeting, u *domain.User) (*domain.Participant, bool, error) {
	p := &domain.Participant{
		ID:             uuid.NewString(),
		MeetingID:      m.ID,
		UserID:         u.ID,
		PeerID:         uuid.NewString(),
		JoinedAt:       s.now(),
		IsAudioEnabled: true,
		IsVideoEnabled: true,
	}

	for attempt := 1; ; attempt++ {
		stored, already, err := s.participants.Join(ctx, p)
		if errors.Is(err, domain.ErrConflict) && attempt < s.joinAttempts {
			metrics.JoinRetriesTotal.Inc()
			continue
		}
		return stored, already, err
	}
}

// Leave closes the user's active membership. Reports whether one existed.
func (s *MemberService) Leave(ctx context.Context, m *domain.Meeting, u *domain.User) (bool, error) {
	return s.participants.Leave(ctx, m.ID, u.ID, s.now())
}

func (s *MemberService) ListActive(ctx context.Context, m *domain.Meeting) ([]domain.Participant, error) {
	return s.participants.ListActive(ctx, m.ID)
}

func (s *MemberService) UpdateMedia(ctx context.Context, m *domain.Meeting, u *domain.User, patch domain.MediaPatch) (*domain.Participant, error) {
	return s.participants.UpdateMedia(ctx, m.ID, u.ID, patch)
}
