package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/repository"

	"github.com/google/uuid"
)

type MeetingService struct {
	meetings repository.MeetingRepository
	now      func() time.Time

	defaultMax int
	maxLimit   int
}

func NewMeetingService(meetings repository.MeetingRepository, now func() time.Time) *MeetingService {
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:   meetings,
		now:        now,
		defaultMax: domain.DefaultMaxParticipants,
		maxLimit:   50,
	}
}

// SetCapacityLimits overrides the default capacity and the upper bound a
// host may request. Non-positive values keep the current setting.
func (s *MeetingService) SetCapacityLimits(defaultMax, maxLimit int) {
	if defaultMax > 0 {
		s.defaultMax = defaultMax
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
}

// Create registers a new active meeting owned by host.
func (s *MeetingService) Create(ctx context.Context, host *domain.User, title string, description *string, maxParticipants int) (*domain.Meeting, error) {
	if maxParticipants <= 0 {
		maxParticipants = s.defaultMax
	}
	if maxParticipants > s.maxLimit {
		maxParticipants = s.maxLimit
	}

	token, err := domain.NewMeetingToken()
	if err != nil {
		return nil, fmt.Errorf("meeting token: %w", err)
	}

	m := &domain.Meeting{
		ID:              uuid.NewString(),
		Token:           token,
		HostID:          host.ID,
		Title:           strings.TrimSpace(title),
		Description:     domain.TrimPtr(description),
		IsActive:        true,
		MaxParticipants: maxParticipants,
		CreatedAt:       s.now(),
	}
	if err := s.meetings.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("meetings.Create: %w", err)
	}
	return m, nil
}

func (s *MeetingService) Get(ctx context.Context, token string) (*domain.Meeting, error) {
	return s.meetings.GetByToken(ctx, strings.TrimSpace(token))
}

// End closes the meeting on behalf of actor. Ending twice is a success.
func (s *MeetingService) End(ctx context.Context, token string, actor *domain.User) (*domain.Meeting, error) {
	return s.meetings.End(ctx, strings.TrimSpace(token), actor.ID, s.now())
}

func (s *MeetingService) ListActive(ctx context.Context, limit int) ([]domain.Meeting, error) {
	return s.meetings.ListActive(ctx, limit)
}
