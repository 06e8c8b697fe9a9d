package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/dgraph-io/badger/v4"
)

type MeetingRepository struct {
	db    *badger.DB
	locks *meetingLocks
}

func NewMeetingRepository(db *badger.DB, locks *meetingLocks) *MeetingRepository {
	if locks == nil {
		locks = newMeetingLocks()
	}
	return &MeetingRepository{db: db, locks: locks}
}

func (r *MeetingRepository) Create(ctx context.Context, m *domain.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(tokenKey(m.Token)); err == nil {
			return domain.ErrConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, meetingKey(m.ID), m); err != nil {
			return err
		}
		return txn.Set(tokenKey(m.Token), []byte(m.ID))
	})
	return mapBadgerError(err)
}

func (r *MeetingRepository) GetByToken(ctx context.Context, token string) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var m *domain.Meeting
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		m, err = meetingByToken(txn, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// End rewrites the meeting record under the meeting lock, so it never
// races a join or leave of the same meeting.
func (r *MeetingRepository) End(ctx context.Context, token, hostID string, at time.Time) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var id string
	err := r.db.View(func(txn *badger.Txn) error {
		m, err := meetingByToken(txn, token)
		if err != nil {
			return err
		}
		id = m.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	unlock := r.locks.lock(id)
	defer unlock()

	var m *domain.Meeting
	err = r.db.Update(func(txn *badger.Txn) error {
		var err error
		m, err = meetingByID(txn, id)
		if err != nil {
			return err
		}
		if m.HostID != hostID {
			return domain.ErrForbidden
		}
		m.End(at)
		return setJSON(txn, meetingKey(m.ID), m)
	})
	if err != nil {
		return nil, mapBadgerError(err)
	}
	return m, nil
}

func (r *MeetingRepository) ListActive(ctx context.Context, limit int) ([]domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Meeting
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := meetingPrefix()
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) == limit {
				break
			}
			var m domain.Meeting
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &m)
			}); err != nil {
				return err
			}
			if m.IsActive {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

func meetingByToken(txn *badger.Txn, token string) (*domain.Meeting, error) {
	item, err := txn.Get(tokenKey(token))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	id, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return meetingByID(txn, string(id))
}

func meetingByID(txn *badger.Txn, id string) (*domain.Meeting, error) {
	var m domain.Meeting
	if err := getJSON(txn, meetingKey(id), &m); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, domain.ErrMeetingNotFound
		}
		return nil, err
	}
	return &m, nil
}
