package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MeetingRepository struct {
	db *pgxpool.Pool
}

func NewMeetingRepository(db *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) Create(ctx context.Context, m *domain.Meeting) error {
	_, err := r.db.Exec(ctx, queryCreateMeeting,
		m.ID,
		m.Token,
		m.HostID,
		m.Title,
		domain.TrimPtr(m.Description),
		m.IsActive,
		m.MaxParticipants,
		m.CreatedAt,
	)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *MeetingRepository) GetByToken(ctx context.Context, token string) (*domain.Meeting, error) {
	return scanMeeting(r.db.QueryRow(ctx, queryGetMeetingByToken, token))
}

// End — проверка хоста и обновление в одной транзакции под блокировкой строки.
func (r *MeetingRepository) End(ctx context.Context, token, hostID string, at time.Time) (*domain.Meeting, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	m, err := scanMeeting(tx.QueryRow(ctx, queryLockMeetingByToken, token))
	if err != nil {
		return nil, err
	}
	if m.HostID != hostID {
		return nil, domain.ErrForbidden
	}

	ended, err := scanMeeting(tx.QueryRow(ctx, queryEndMeeting, m.ID, at))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError(err)
	}
	return ended, nil
}

func (r *MeetingRepository) ListActive(ctx context.Context, limit int) ([]domain.Meeting, error) {
	rows, err := r.db.Query(ctx, queryListActiveMeetings, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []domain.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMeeting(row pgx.Row) (*domain.Meeting, error) {
	var m domain.Meeting
	err := row.Scan(
		&m.ID,
		&m.Token,
		&m.HostID,
		&m.Title,
		&m.Description,
		&m.IsActive,
		&m.MaxParticipants,
		&m.CreatedAt,
		&m.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMeetingNotFound
		}
		return nil, mapPgError(err)
	}
	return &m, nil
}
