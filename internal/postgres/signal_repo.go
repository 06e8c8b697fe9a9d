package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SignalRepository struct {
	db *pgxpool.Pool
}

func NewSignalRepository(db *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{db: db}
}

func (r *SignalRepository) Save(ctx context.Context, s *domain.Signal) error {
	_, err := r.db.Exec(ctx, querySaveSignal,
		s.ID,
		s.MeetingID,
		s.FromUserID,
		s.ToUserID,
		s.Type,
		s.Payload,
		s.CreatedAt,
	)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *SignalRepository) ListForRecipient(ctx context.Context, meetingID, recipientID string, limit int) ([]domain.Signal, error) {
	rows, err := r.db.Query(ctx, queryListSignalsForRecipient, meetingID, recipientID, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.Signal, 0, limit)
	for rows.Next() {
		var s domain.Signal
		if err := rows.Scan(&s.ID, &s.MeetingID, &s.FromUserID, &s.ToUserID, &s.Type, &s.Payload, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SignalRepository) DeleteOlderThan(ctx context.Context, meetingID string, cutoff time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, queryDeleteSignalsOlderThan, meetingID, cutoff)
	if err != nil {
		return 0, mapPgError(err)
	}
	return cmd.RowsAffected(), nil
}
