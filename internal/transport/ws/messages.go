package ws

// Типы событий, которые поступают в WS
const (
	TypeState        = "state"         // снапшот активных участников
	TypePeerJoined   = "peer_joined"   // пользователь присоединился
	TypePeerLeft     = "peer_left"     // пользователь покинул встречу
	TypePeerMedia    = "peer_media"    // изменились флаги аудио/видео
	TypeSignal       = "signal"        // сигнал для конкретного получателя; от клиента тоже
	TypeMeetingEnded = "meeting_ended" // хост завершил встречу
	TypeError        = "error"         // ответ на некорректный кадр клиента
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type StatePayload struct {
	MeetingToken string                 `json:"meeting_token"`
	Participants []ParticipantStateItem `json:"participants"`
}

type ParticipantStateItem struct {
	UserID       string `json:"user_id"`
	PeerID       string `json:"peer_id"`
	AudioEnabled bool   `json:"audio_enabled"`
	VideoEnabled bool   `json:"video_enabled"`
	JoinedAtMs   int64  `json:"joined_at_ms"`
}

type PeerEventPayload struct {
	MeetingToken string `json:"meeting_token"`
	UserID       string `json:"user_id"`
	PeerID       string `json:"peer_id,omitempty"`
	AudioEnabled *bool  `json:"audio_enabled,omitempty"`
	VideoEnabled *bool  `json:"video_enabled,omitempty"`
}

type SignalPayload struct {
	ID           string `json:"id,omitempty"`
	MeetingToken string `json:"meeting_token,omitempty"`
	From         string `json:"from,omitempty"`
	To           string `json:"to"`
	SignalType   string `json:"signal_type"`
	Payload      string `json:"payload"`
	CreatedAtMs  int64  `json:"created_at_ms,omitempty"`
}

type MeetingEndedPayload struct {
	MeetingToken string `json:"meeting_token"`
}

type ErrorPayload struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
