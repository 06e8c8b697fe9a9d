package badgerstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/dgraph-io/badger/v4"
)

type SignalRepository struct {
	db *badger.DB
}

func NewSignalRepository(db *badger.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

func (r *SignalRepository) Save(ctx context.Context, s *domain.Signal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, signalKey(s.MeetingID, s.ToUserID, s.CreatedAt, s.ID), s)
	})
	return mapBadgerError(err)
}

// ListForRecipient walks the recipient's keys backwards, so the newest
// signals come first.
func (r *SignalRepository) ListForRecipient(ctx context.Context, meetingID, recipientID string, limit int) ([]domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Signal, 0, limit)
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := signalRecipientPrefix(meetingID, recipientID)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if len(out) == limit {
				break
			}
			var s domain.Signal
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			}); err != nil {
				return err
			}
			out = append(out, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SignalRepository) DeleteOlderThan(ctx context.Context, meetingID string, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var stale [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := signalMeetingPrefix(meetingID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var s domain.Signal
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			}); err != nil {
				return err
			}
			if s.CreatedAt.Before(cutoff) {
				stale = append(stale, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return 0, err
	}

	wb := r.db.NewWriteBatch()
	for _, k := range stale {
		if err := wb.Delete(k); err != nil {
			wb.Cancel()
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return int64(len(stale)), nil
}
