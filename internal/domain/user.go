package domain

import (
	"strings"
	"time"
)

// User is a directory record. ExternalID is the opaque identity supplied
// by the authentication layer.
type User struct {
	ID           string    `db:"id" json:"id"`
	ExternalID   string    `db:"external_id" json:"external_id"`
	Email        string    `db:"email" json:"email"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	AvatarURL    *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	LastActiveAt time.Time `db:"last_active_at" json:"last_active_at"`
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func TrimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	t := strings.TrimSpace(*p)
	if t == "" {
		return nil
	}

	return &t
}
