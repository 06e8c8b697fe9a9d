package service

import (
	"context"
	"strings"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/repository"

	"github.com/google/uuid"
)

// Directory turns an authenticated opaque identity into a user record.
type Directory struct {
	users repository.UserRepository
	now   func() time.Time
}

func NewDirectory(users repository.UserRepository, now func() time.Time) *Directory {
	if now == nil {
		now = time.Now
	}
	return &Directory{users: users, now: now}
}

// Resolve returns domain.ErrUnauthenticated for an empty identity and
// domain.ErrUserNotFound when the identity has no record.
func (d *Directory) Resolve(ctx context.Context, identity string) (*domain.User, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, domain.ErrUnauthenticated
	}
	return d.users.GetByExternalID(ctx, identity)
}

type Profile struct {
	Email       string
	DisplayName string
	AvatarURL   *string
}

// Sync creates or refreshes the caller's record and bumps last-active time.
func (d *Directory) Sync(ctx context.Context, identity string, p Profile) (*domain.User, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, domain.ErrUnauthenticated
	}
	now := d.now()
	u := &domain.User{
		ID:           uuid.NewString(),
		ExternalID:   identity,
		Email:        domain.NormalizeEmail(p.Email),
		DisplayName:  strings.TrimSpace(p.DisplayName),
		AvatarURL:    domain.TrimPtr(p.AvatarURL),
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := d.users.Upsert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
