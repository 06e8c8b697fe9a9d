// Package badgerstore implements the repositories on an embedded Badger
// database. Capacity and host checks run inside optimistic Badger
// transactions; concurrent writers to the same meeting surface as
// domain.ErrConflict and are retried by the service layer.
package badgerstore

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

type Config struct {
	Path     string
	InMemory bool
}

func Open(cfg Config, log *slog.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(badgerLogger{log: log}).
		WithLoggingLevel(badger.WARNING)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open %q: %w", cfg.Path, err)
	}
	return db, nil
}

func NewStore(db *badger.DB) *repository.Store {
	locks := newMeetingLocks()
	return &repository.Store{
		Users:        NewUserRepository(db),
		Meetings:     NewMeetingRepository(db, locks),
		Participants: NewParticipantRepository(db, locks),
		Signals:      NewSignalRepository(db),
		Close:        db.Close,
	}
}

func getJSON(txn *badger.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, b)
}

func getCounter(txn *badger.Txn, key []byte) (int, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var n uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("counter %q: unexpected length %d", key, len(val))
		}
		n = binary.BigEndian.Uint64(val)
		return nil
	})
	return int(n), err
}

func setCounter(txn *badger.Txn, key []byte, n int) error {
	if n < 0 {
		n = 0
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(n))
	return txn.Set(key, b)
}

func mapBadgerError(err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return errors.Join(domain.ErrConflict, err)
	}
	return err
}

type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) logger() *slog.Logger {
	if l.log == nil {
		return slog.Default()
	}
	return l.log
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger().Error("badger: " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger().Warn("badger: " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger().Info("badger: " + fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger().Debug("badger: " + fmt.Sprintf(format, args...))
}
