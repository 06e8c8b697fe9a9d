package postgres

import (
	"context"
	"errors"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	q querier
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{q: db}
}

func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	var u domain.User
	err := r.q.QueryRow(ctx, queryGetUserByExternalID, externalID).Scan(
		&u.ID,
		&u.ExternalID,
		&u.Email,
		&u.DisplayName,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.LastActiveAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, mapPgError(err)
	}

	return &u, nil
}

func (r *UserRepository) Upsert(ctx context.Context, u *domain.User) error {
	err := r.q.QueryRow(ctx, queryUpsertUser,
		u.ID,
		u.ExternalID,
		u.Email,
		u.DisplayName,
		domain.TrimPtr(u.AvatarURL),
		u.CreatedAt,
		u.LastActiveAt,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}

	return nil
}
