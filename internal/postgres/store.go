package postgres

import (
	"github.com/cwrk-planet/meeting-service/internal/repository"
)

func NewStore(db *DB) *repository.Store {
	return &repository.Store{
		Users:        NewUserRepository(db.Pool),
		Meetings:     NewMeetingRepository(db.Pool),
		Participants: NewParticipantRepository(db.Pool),
		Signals:      NewSignalRepository(db.Pool),
		Close: func() error {
			db.Close()
			return nil
		},
	}
}
