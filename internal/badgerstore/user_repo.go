package badgerstore

import (
	"context"
	"errors"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/dgraph-io/badger/v4"
)

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var u domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(externalID), &u)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Upsert(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		var existing domain.User
		err := getJSON(txn, userKey(u.ExternalID), &existing)
		switch {
		case err == nil:
			u.ID = existing.ID
			u.CreatedAt = existing.CreatedAt
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		u.AvatarURL = domain.TrimPtr(u.AvatarURL)
		return setJSON(txn, userKey(u.ExternalID), u)
	})
	return mapBadgerError(err)
}
