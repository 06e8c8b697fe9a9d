package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/dgraph-io/badger/v4"
)

type ParticipantRepository struct {
	db    *badger.DB
	locks *meetingLocks
}

func NewParticipantRepository(db *badger.DB, locks *meetingLocks) *ParticipantRepository {
	if locks == nil {
		locks = newMeetingLocks()
	}
	return &ParticipantRepository{db: db, locks: locks}
}

// Join holds the meeting lock while it reads the meeting record, the
// occupancy counter and the caller's active index and writes the new row.
// Joins of one meeting run one at a time; the counter read inside the
// transaction still turns any out-of-process writer into ErrConflict.
func (r *ParticipantRepository) Join(ctx context.Context, p *domain.Participant) (*domain.Participant, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	unlock := r.locks.lock(p.MeetingID)
	defer unlock()

	var (
		stored  *domain.Participant
		already bool
	)
	err := r.db.Update(func(txn *badger.Txn) error {
		stored, already = nil, false

		m, err := meetingByID(txn, p.MeetingID)
		if err != nil {
			return err
		}
		if !m.IsActive {
			return domain.ErrMeetingNotFound
		}

		count, err := getCounter(txn, occupancyKey(p.MeetingID))
		if err != nil {
			return err
		}

		existing, err := activeParticipant(txn, p.MeetingID, p.UserID)
		switch {
		case err == nil:
			stored, already = existing, true
			return nil
		case !errors.Is(err, domain.ErrNotInMeeting):
			return err
		}

		if count >= m.MaxParticipants {
			return domain.ErrMeetingFull
		}

		pk := participantKey(p.MeetingID, p.JoinedAt, p.ID)
		if err := setJSON(txn, pk, p); err != nil {
			return err
		}
		if err := txn.Set(activeKey(p.MeetingID, p.UserID), pk); err != nil {
			return err
		}
		if err := setCounter(txn, occupancyKey(p.MeetingID), count+1); err != nil {
			return err
		}
		stored = p
		return nil
	})
	if err != nil {
		return nil, false, mapBadgerError(err)
	}
	return stored, already, nil
}

func (r *ParticipantRepository) Leave(ctx context.Context, meetingID, userID string, at time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	unlock := r.locks.lock(meetingID)
	defer unlock()

	var left bool
	err := r.db.Update(func(txn *badger.Txn) error {
		left = false

		pk, err := activeParticipantKey(txn, meetingID, userID)
		if errors.Is(err, domain.ErrNotInMeeting) {
			return nil
		}
		if err != nil {
			return err
		}
		var p domain.Participant
		if err := getJSON(txn, pk, &p); err != nil {
			return err
		}
		p.LeftAt = &at
		if err := setJSON(txn, pk, &p); err != nil {
			return err
		}
		if err := txn.Delete(activeKey(meetingID, userID)); err != nil {
			return err
		}
		count, err := getCounter(txn, occupancyKey(meetingID))
		if err != nil {
			return err
		}
		left = true
		return setCounter(txn, occupancyKey(meetingID), count-1)
	})
	if err != nil {
		return false, mapBadgerError(err)
	}
	return left, nil
}

func (r *ParticipantRepository) ListActive(ctx context.Context, meetingID string) ([]domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := make([]domain.Participant, 0, 8)
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := participantPrefix(meetingID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p domain.Participant
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return err
			}
			if p.Active() {
				list = append(list, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *ParticipantRepository) UpdateMedia(ctx context.Context, meetingID, userID string, patch domain.MediaPatch) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := r.locks.lock(meetingID)
	defer unlock()

	var p domain.Participant
	err := r.db.Update(func(txn *badger.Txn) error {
		pk, err := activeParticipantKey(txn, meetingID, userID)
		if err != nil {
			return err
		}
		if err := getJSON(txn, pk, &p); err != nil {
			return err
		}
		p.ApplyMedia(patch)
		return setJSON(txn, pk, &p)
	})
	if err != nil {
		return nil, mapBadgerError(err)
	}
	return &p, nil
}

func activeParticipantKey(txn *badger.Txn, meetingID, userID string) ([]byte, error) {
	item, err := txn.Get(activeKey(meetingID, userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotInMeeting
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func activeParticipant(txn *badger.Txn, meetingID, userID string) (*domain.Participant, error) {
	pk, err := activeParticipantKey(txn, meetingID, userID)
	if err != nil {
		return nil, err
	}
	var p domain.Participant
	if err := getJSON(txn, pk, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
