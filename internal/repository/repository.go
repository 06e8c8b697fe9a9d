package repository

import (
	"context"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
)

// UserRepository backs the directory. Lookups by external identity return
// domain.ErrUserNotFound when absent.
type UserRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	// Upsert creates or refreshes the profile keyed by ExternalID and fills
	// ID/CreatedAt from the stored record.
	Upsert(ctx context.Context, u *domain.User) error
}

type MeetingRepository interface {
	Create(ctx context.Context, m *domain.Meeting) error
	// GetByToken returns domain.ErrMeetingNotFound when the token is unknown.
	GetByToken(ctx context.Context, token string) (*domain.Meeting, error)
	// End atomically checks that hostID owns the meeting and marks it ended.
	// Ending an already-ended meeting succeeds and keeps the first end time.
	End(ctx context.Context, token, hostID string, at time.Time) (*domain.Meeting, error)
	ListActive(ctx context.Context, limit int) ([]domain.Meeting, error)
}

type ParticipantRepository interface {
	// Join attaches to the caller's active row when one exists, otherwise
	// checks capacity and inserts p, all as one atomic unit per meeting.
	// Returns the stored row and whether it already existed.
	Join(ctx context.Context, p *domain.Participant) (*domain.Participant, bool, error)
	// Leave stamps left_at on the active row. Reports false when there was none.
	Leave(ctx context.Context, meetingID, userID string, at time.Time) (bool, error)
	ListActive(ctx context.Context, meetingID string) ([]domain.Participant, error)
	// UpdateMedia patches the active row; domain.ErrNotInMeeting when absent.
	UpdateMedia(ctx context.Context, meetingID, userID string, patch domain.MediaPatch) (*domain.Participant, error)
}

type SignalRepository interface {
	Save(ctx context.Context, s *domain.Signal) error
	// ListForRecipient returns up to limit signals addressed to recipientID,
	// newest first.
	ListForRecipient(ctx context.Context, meetingID, recipientID string, limit int) ([]domain.Signal, error)
	// DeleteOlderThan removes signals with created_at strictly before cutoff.
	DeleteOlderThan(ctx context.Context, meetingID string, cutoff time.Time) (int64, error)
}

// Store bundles one backend's repositories.
type Store struct {
	Users        UserRepository
	Meetings     MeetingRepository
	Participants ParticipantRepository
	Signals      SignalRepository
	Close        func() error
}
