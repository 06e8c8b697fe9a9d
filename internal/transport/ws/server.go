package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/auth"
	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/metrics"
	"github.com/cwrk-planet/meeting-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type Session interface {
	GetMeeting(ctx context.Context, token string) (*domain.Meeting, error)
	ResolveUser(ctx context.Context, identity string) (*domain.User, error)
	ListActive(ctx context.Context, token string) ([]domain.Participant, error)
	SendSignal(ctx context.Context, identity, token string, req service.SendSignalRequest) (*domain.Signal, error)
	Leave(ctx context.Context, identity, token string) error
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	sess     Session

	pingEvery         time.Duration
	leaveOnDisconnect bool
}

func NewServer(hub *Hub, sess Session) *Server {
	return &Server{
		hub:  hub,
		sess: sess,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

func (s *Server) SetPingEvery(d time.Duration) {
	if d > 0 {
		s.pingEvery = d
	}
}

// SetLeaveOnDisconnect makes a dropped connection leave the meeting.
func (s *Server) SetLeaveOnDisconnect(v bool) {
	s.leaveOnDisconnect = v
}

// WS endpoint: GET /ws/meetings/{token}?access_token=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := auth.IdentityFromCtx(ctx)
	if identity == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	token := chi.URLParam(r, "token")

	if _, err := s.sess.GetMeeting(ctx, token); err != nil {
		if errors.Is(err, domain.ErrMeetingNotFound) {
			http.Error(w, "meeting not found", http.StatusNotFound)
			return
		}
		slog.Error("ws.GetMeeting failed", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	user, err := s.sess.ResolveUser(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		slog.Error("ws.ResolveUser failed", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет ответ клиенту
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, token, user.ID)
	s.hub.Add(c)
	metrics.WSConnections.Inc()
	defer func() {
		s.hub.Remove(c)
		metrics.WSConnections.Dec()
		_ = c.Close()
	}()

	if err := s.sendState(ctx, c); err != nil {
		slog.Warn("ws send initial state failed", "meeting", token, "user", user.ID, "err", err)
	}

	go s.writeLoop(ctx, c)
	s.readLoop(ctx, c, identity)

	if s.leaveOnDisconnect {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.sess.Leave(lctx, identity, token); err != nil {
			slog.Debug("ws leave on disconnect failed", "meeting", token, "user", user.ID, "err", err)
		}
	}
}

func (s *Server) sendState(ctx context.Context, c *wsConn) error {
	parts, err := s.sess.ListActive(ctx, c.token)
	if err != nil {
		return err
	}
	items := lo.Map(parts, func(p domain.Participant, _ int) ParticipantStateItem {
		return ParticipantStateItem{
			UserID:       p.UserID,
			PeerID:       p.PeerID,
			AudioEnabled: p.IsAudioEnabled,
			VideoEnabled: p.IsVideoEnabled,
			JoinedAtMs:   p.JoinedAt.UnixMilli(),
		}
	})

	return c.Send(Message{
		Type: TypeState,
		Payload: StatePayload{
			MeetingToken: c.token,
			Participants: items,
		},
	})
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (s *Server) readLoop(ctx context.Context, c *wsConn, identity string) {
	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = c.Send(errorMessage("invalid json", domain.KindInvalidArgument))
			continue
		}

		switch msg.Type {
		case TypeSignal:
			var p SignalPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				_ = c.Send(errorMessage("invalid signal payload", domain.KindInvalidArgument))
				continue
			}
			// доставка получателю идёт через Notifier
			_, err := s.sess.SendSignal(ctx, identity, c.token, service.SendSignalRequest{
				To:      p.To,
				Type:    p.SignalType,
				Payload: p.Payload,
			})
			if err != nil {
				_ = c.Send(errorMessage(err.Error(), domain.KindOf(err)))
			}
		default:
			// ignore
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.ping(); err != nil {
				_ = c.Close()
				return
			}
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func errorMessage(msg string, kind domain.Kind) Message {
	return Message{Type: TypeError, Payload: ErrorPayload{Error: msg, Kind: string(kind)}}
}

type wsConn struct {
	conn   *websocket.Conn
	token  string
	userID string

	writeMu   sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, token, userID string) *wsConn {
	return &wsConn{
		conn:   c,
		token:  token,
		userID: userID,
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) UserID() string       { return c.userID }
func (c *wsConn) MeetingToken() string { return c.token }
