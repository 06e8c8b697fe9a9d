package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Join — защищён от гонок по max_participants.
// Строка встречи блокируется, поэтому два параллельных Join по одной встрече
// не пробьют лимит и не создадут две активные строки одного пользователя.
func (r *ParticipantRepository) Join(ctx context.Context, p *domain.Participant) (*domain.Participant, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	var (
		active   bool
		capacity int
	)
	if err := tx.QueryRow(ctx, queryLockMeetingCapacity, p.MeetingID).Scan(&active, &capacity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, domain.ErrMeetingNotFound
		}
		return nil, false, mapPgError(err)
	}
	if !active {
		return nil, false, domain.ErrMeetingNotFound
	}

	existing, err := scanParticipant(tx.QueryRow(ctx, queryGetActiveParticipant, p.MeetingID, p.UserID))
	switch {
	case err == nil:
		return existing, true, tx.Commit(ctx)
	case !errors.Is(err, domain.ErrNotInMeeting):
		return nil, false, err
	}

	var count int
	if err := tx.QueryRow(ctx, queryCountActiveParticipants, p.MeetingID).Scan(&count); err != nil {
		return nil, false, mapPgError(err)
	}
	if count >= capacity {
		return nil, false, domain.ErrMeetingFull
	}

	if _, err := tx.Exec(ctx, queryInsertParticipant,
		p.ID,
		p.MeetingID,
		p.UserID,
		p.PeerID,
		p.JoinedAt,
		p.IsAudioEnabled,
		p.IsVideoEnabled,
	); err != nil {
		return nil, false, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, mapPgError(err)
	}
	return p, false, nil
}

func (r *ParticipantRepository) Leave(ctx context.Context, meetingID, userID string, at time.Time) (bool, error) {
	cmd, err := r.db.Exec(ctx, queryLeaveParticipant, meetingID, userID, at)
	if err != nil {
		return false, mapPgError(err)
	}

	return cmd.RowsAffected() > 0, nil
}

func (r *ParticipantRepository) ListActive(ctx context.Context, meetingID string) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx, queryListActiveParticipants, meetingID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	list := make([]domain.Participant, 0, 8)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

func (r *ParticipantRepository) UpdateMedia(ctx context.Context, meetingID, userID string, patch domain.MediaPatch) (*domain.Participant, error) {
	return scanParticipant(r.db.QueryRow(ctx, queryUpdateParticipantMedia, meetingID, userID, patch.Audio, patch.Video))
}

func scanParticipant(row pgx.Row) (*domain.Participant, error) {
	var p domain.Participant
	err := row.Scan(
		&p.ID,
		&p.MeetingID,
		&p.UserID,
		&p.PeerID,
		&p.JoinedAt,
		&p.LeftAt,
		&p.IsAudioEnabled,
		&p.IsVideoEnabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotInMeeting
		}
		return nil, mapPgError(err)
	}
	return &p, nil
}
