package ws

import (
	"sync"

	"github.com/cwrk-planet/meeting-service/internal/domain"

	"github.com/samber/lo"
)

type Conn interface {
	Send(msg Message) error
	Close() error
	UserID() string
	MeetingToken() string
}

// Hub tracks open connections per meeting and fans out meeting events.
// It implements service.Notifier.
type Hub struct {
	mu       sync.RWMutex
	meetings map[string]map[Conn]struct{} // token -> set of connections
}

func NewHub() *Hub {
	return &Hub{meetings: make(map[string]map[Conn]struct{})}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.meetings[c.MeetingToken()]
	if !ok {
		set = make(map[Conn]struct{})
		h.meetings[c.MeetingToken()] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.meetings[c.MeetingToken()]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.meetings, c.MeetingToken())
		}
	}
}

// Count returns the number of open connections for token.
func (h *Hub) Count(token string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.meetings[token])
}

func (h *Hub) Broadcast(token string, msg Message) {
	for _, c := range h.conns(token, "") {
		_ = c.Send(msg) // best-effort
	}
}

// SendTo delivers msg only to userID's connections in the meeting.
func (h *Hub) SendTo(token, userID string, msg Message) {
	for _, c := range h.conns(token, userID) {
		_ = c.Send(msg)
	}
}

// conns snapshots the targets so that slow sends do not hold the lock.
func (h *Hub) conns(token, userID string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	all := lo.Keys(h.meetings[token])
	if userID == "" {
		return all
	}
	return lo.Filter(all, func(c Conn, _ int) bool { return c.UserID() == userID })
}

func (h *Hub) ParticipantJoined(token string, p domain.Participant) {
	h.Broadcast(token, Message{Type: TypePeerJoined, Payload: PeerEventPayload{
		MeetingToken: token,
		UserID:       p.UserID,
		PeerID:       p.PeerID,
		AudioEnabled: lo.ToPtr(p.IsAudioEnabled),
		VideoEnabled: lo.ToPtr(p.IsVideoEnabled),
	}})
}

func (h *Hub) ParticipantLeft(token, userID string) {
	h.Broadcast(token, Message{Type: TypePeerLeft, Payload: PeerEventPayload{
		MeetingToken: token,
		UserID:       userID,
	}})
}

func (h *Hub) MediaChanged(token string, p domain.Participant) {
	h.Broadcast(token, Message{Type: TypePeerMedia, Payload: PeerEventPayload{
		MeetingToken: token,
		UserID:       p.UserID,
		PeerID:       p.PeerID,
		AudioEnabled: lo.ToPtr(p.IsAudioEnabled),
		VideoEnabled: lo.ToPtr(p.IsVideoEnabled),
	}})
}

func (h *Hub) SignalSent(token string, s domain.Signal) {
	h.SendTo(token, s.ToUserID, Message{Type: TypeSignal, Payload: signalPayload(token, s)})
}

func (h *Hub) MeetingEnded(token string) {
	h.Broadcast(token, Message{Type: TypeMeetingEnded, Payload: MeetingEndedPayload{MeetingToken: token}})
}

func signalPayload(token string, s domain.Signal) SignalPayload {
	return SignalPayload{
		ID:           s.ID,
		MeetingToken: token,
		From:         s.FromUserID,
		To:           s.ToUserID,
		SignalType:   s.Type,
		Payload:      s.Payload,
		CreatedAtMs:  s.CreatedAt.UnixMilli(),
	}
}
