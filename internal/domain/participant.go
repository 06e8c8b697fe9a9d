package domain

import "time"

type Participant struct {
	ID             string     `db:"id" json:"id"`
	MeetingID      string     `db:"meeting_id" json:"meeting_id"`
	UserID         string     `db:"user_id" json:"user_id"`
	PeerID         string     `db:"peer_id" json:"peer_id"`
	JoinedAt       time.Time  `db:"joined_at" json:"joined_at"`
	LeftAt         *time.Time `db:"left_at" json:"left_at,omitempty"`
	IsAudioEnabled bool       `db:"audio_enabled" json:"audio_enabled"`
	IsVideoEnabled bool       `db:"video_enabled" json:"video_enabled"`
}

func (p *Participant) Active() bool { return p.LeftAt == nil }

// MediaPatch carries optional audio/video flag changes.
type MediaPatch struct {
	Audio *bool
	Video *bool
}

func (p *Participant) ApplyMedia(patch MediaPatch) {
	if patch.Audio != nil {
		p.IsAudioEnabled = *patch.Audio
	}
	if patch.Video != nil {
		p.IsVideoEnabled = *patch.Video
	}
}
