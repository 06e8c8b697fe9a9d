package domain

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"time"
)

const (
	DefaultMaxParticipants = 8
	meetingTokenBytes      = 16
)

type Meeting struct {
	ID              string     `db:"id" json:"id"`
	Token           string     `db:"token" json:"token"`
	HostID          string     `db:"host_id" json:"host_id"`
	Title           string     `db:"title" json:"title"`
	Description     *string    `db:"description" json:"description,omitempty"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	MaxParticipants int        `db:"max_participants" json:"max_participants"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	EndedAt         *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

// End flips the meeting to inactive. A second call keeps the first end time.
func (m *Meeting) End(at time.Time) {
	if !m.IsActive && m.EndedAt != nil {
		return
	}
	m.IsActive = false
	m.EndedAt = &at
}

// NewMeetingToken returns 128 random bits, hex encoded.
func NewMeetingToken() (string, error) {
	b := make([]byte, meetingTokenBytes)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
