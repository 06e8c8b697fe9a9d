package service

import (
	"context"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/repository"

	"github.com/google/uuid"
)

const defaultFetchLimit = 50

type SignalService struct {
	signals repository.SignalRepository
	now     func() time.Time

	retention  domain.RetentionPolicy
	fetchLimit int
}

func NewSignalService(signals repository.SignalRepository, now func() time.Time) *SignalService {
	if now == nil {
		now = time.Now
	}
	return &SignalService{
		signals:    signals,
		now:        now,
		retention:  domain.NewRetentionPolicy(domain.DefaultSignalRetention),
		fetchLimit: defaultFetchLimit,
	}
}

func (s *SignalService) SetRetention(window time.Duration) {
	s.retention = domain.NewRetentionPolicy(window)
}

func (s *SignalService) SetFetchLimit(n int) {
	if n > 0 {
		s.fetchLimit = n
	}
}

// Send stores one signal from sender to recipient. The recipient is not
// checked against the directory or the participant list.
func (s *SignalService) Send(ctx context.Context, m *domain.Meeting, from *domain.User, to, signalType, payload string) (*domain.Signal, error) {
	sig := &domain.Signal{
		ID:         uuid.NewString(),
		MeetingID:  m.ID,
		FromUserID: from.ID,
		ToUserID:   to,
		Type:       signalType,
		Payload:    payload,
		CreatedAt:  s.now(),
	}
	if err := s.signals.Save(ctx, sig); err != nil {
		return nil, err
	}
	return sig, nil
}

// Fetch returns the newest signals addressed to recipientID without
// consuming them.
func (s *SignalService) Fetch(ctx context.Context, m *domain.Meeting, recipientID string) ([]domain.Signal, error) {
	return s.signals.ListForRecipient(ctx, m.ID, recipientID, s.fetchLimit)
}

// Prune deletes the meeting's signals that fall outside the retention
// window. A zero window uses the configured retention.
func (s *SignalService) Prune(ctx context.Context, m *domain.Meeting, window time.Duration) (int64, error) {
	policy := s.retention
	if window > 0 {
		policy = domain.NewRetentionPolicy(window)
	}
	return s.signals.DeleteOlderThan(ctx, m.ID, policy.Cutoff(s.now()))
}
