package http

import (
	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/pion/webrtc/v4"
	"github.com/samber/lo"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type CreateMeetingResponse struct {
	MeetingID string `json:"meeting_id"`
	Token     string `json:"token"`
}

type MeetingItem struct {
	ID              string  `json:"id"`
	Token           string  `json:"token"`
	HostID          string  `json:"host_id"`
	Title           string  `json:"title"`
	Description     *string `json:"description,omitempty"`
	IsActive        bool    `json:"is_active"`
	MaxParticipants int     `json:"max_participants"`
	CreatedAtMs     int64   `json:"created_at_ms"`
	EndedAtMs       *int64  `json:"ended_at_ms,omitempty"`
}

type JoinResponse struct {
	Meeting       MeetingItem `json:"meeting"`
	ParticipantID string      `json:"participant_id"`
	PeerID        string      `json:"peer_id"`
	AlreadyJoined bool        `json:"already_joined"`
}

type ParticipantItem struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	PeerID       string `json:"peer_id"`
	JoinedAtMs   int64  `json:"joined_at_ms"`
	AudioEnabled bool   `json:"audio_enabled"`
	VideoEnabled bool   `json:"video_enabled"`
}

type ParticipantsResponse struct {
	Items []ParticipantItem `json:"items"`
}

type SignalItem struct {
	ID          string `json:"id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Type        string `json:"type"`
	Payload     string `json:"payload"`
	CreatedAtMs int64  `json:"created_at_ms"`
}

type SignalsResponse struct {
	Items []SignalItem `json:"items"`
}

type PruneRequest struct {
	// пусто = окно хранения из конфига
	WindowSeconds *int64 `json:"window_seconds,omitempty"`
}

type PruneResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

type UserResponse struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	DisplayName  string  `json:"display_name"`
	AvatarURL    *string `json:"avatar_url,omitempty"`
	LastActiveMs int64   `json:"last_active_ms"`
}

type ICEServersResponse struct {
	ICEServers []webrtc.ICEServer `json:"ice_servers"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

func toMeetingItem(m *domain.Meeting) MeetingItem {
	item := MeetingItem{
		ID:              m.ID,
		Token:           m.Token,
		HostID:          m.HostID,
		Title:           m.Title,
		Description:     m.Description,
		IsActive:        m.IsActive,
		MaxParticipants: m.MaxParticipants,
		CreatedAtMs:     m.CreatedAt.UnixMilli(),
	}
	if m.EndedAt != nil {
		item.EndedAtMs = lo.ToPtr(m.EndedAt.UnixMilli())
	}
	return item
}

func toParticipantItem(p domain.Participant, _ int) ParticipantItem {
	return ParticipantItem{
		ID:           p.ID,
		UserID:       p.UserID,
		PeerID:       p.PeerID,
		JoinedAtMs:   p.JoinedAt.UnixMilli(),
		AudioEnabled: p.IsAudioEnabled,
		VideoEnabled: p.IsVideoEnabled,
	}
}

func toSignalItem(s domain.Signal, _ int) SignalItem {
	return SignalItem{
		ID:          s.ID,
		From:        s.FromUserID,
		To:          s.ToUserID,
		Type:        s.Type,
		Payload:     s.Payload,
		CreatedAtMs: s.CreatedAt.UnixMilli(),
	}
}
