package domain

import "time"

// Common signal types. The relay itself treats the type as opaque.
const (
	SignalOffer        = "offer"
	SignalAnswer       = "answer"
	SignalICECandidate = "ice-candidate"
)

type Signal struct {
	ID         string    `db:"id" json:"id"`
	MeetingID  string    `db:"meeting_id" json:"meeting_id"`
	FromUserID string    `db:"from_user_id" json:"from_user_id"`
	ToUserID   string    `db:"to_user_id" json:"to_user_id"`
	Type       string    `db:"type" json:"type"`
	Payload    string    `db:"payload" json:"payload"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
