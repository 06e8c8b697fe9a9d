package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/auth"
	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/pion/webrtc/v4"
	"github.com/samber/lo"
)

type Handler struct {
	sess *service.Session
	ice  []webrtc.ICEServer
	now  func() time.Time
}

func NewHandler(sess *service.Session, ice []webrtc.ICEServer, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	if ice == nil {
		ice = []webrtc.ICEServer{}
	}
	return &Handler{sess: sess, ice: ice, now: now}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody treats an empty body as the zero value.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return errors.Join(domain.ErrInvalidArgument, err)
	}
	return nil
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: h.now().UnixMilli()})
}

// GET /ice-servers
func (h *Handler) ICEServers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ICEServersResponse{ICEServers: h.ice})
}

// PUT /users/me
func (h *Handler) SyncProfile(w http.ResponseWriter, r *http.Request) {
	var req service.SyncProfileRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, "SyncProfile", err)
		return
	}
	u, err := h.sess.SyncProfile(r.Context(), auth.IdentityFromCtx(r.Context()), req)
	if err != nil {
		writeError(w, r, "SyncProfile", err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		AvatarURL:    u.AvatarURL,
		LastActiveMs: u.LastActiveAt.UnixMilli(),
	})
}

// POST /meetings
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	var req service.CreateMeetingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, "CreateMeeting", err)
		return
	}
	out, err := h.sess.CreateMeeting(r.Context(), auth.IdentityFromCtx(r.Context()), req)
	if err != nil {
		writeError(w, r, "CreateMeeting", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateMeetingResponse{MeetingID: out.MeetingID, Token: out.Token})
}

// GET /meetings/{token}
func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	m, err := h.sess.GetMeeting(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, "GetMeeting", err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingItem(m))
}

// POST /meetings/{token}/join
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	out, err := h.sess.Join(r.Context(), auth.IdentityFromCtx(r.Context()), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, "Join", err)
		return
	}
	writeJSON(w, http.StatusOK, JoinResponse{
		Meeting:       toMeetingItem(out.Meeting),
		ParticipantID: out.Participant.ID,
		PeerID:        out.Participant.PeerID,
		AlreadyJoined: out.AlreadyJoined,
	})
}

// POST /meetings/{token}/leave
func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.Leave(r.Context(), auth.IdentityFromCtx(r.Context()), chi.URLParam(r, "token")); err != nil {
		writeError(w, r, "Leave", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// POST /meetings/{token}/end
func (h *Handler) EndMeeting(w http.ResponseWriter, r *http.Request) {
	if err := h.sess.EndMeeting(r.Context(), auth.IdentityFromCtx(r.Context()), chi.URLParam(r, "token")); err != nil {
		writeError(w, r, "EndMeeting", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// GET /meetings/{token}/participants
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	items, err := h.sess.ListActive(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, "ListParticipants", err)
		return
	}
	writeJSON(w, http.StatusOK, ParticipantsResponse{Items: lo.Map(items, toParticipantItem)})
}

// PATCH /meetings/{token}/media
func (h *Handler) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateMediaRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, "UpdateMedia", err)
		return
	}
	p, err := h.sess.UpdateMedia(r.Context(), auth.IdentityFromCtx(r.Context()), chi.URLParam(r, "token"), req)
	if err != nil {
		writeError(w, r, "UpdateMedia", err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantItem(*p, 0))
}

// POST /meetings/{token}/signals
func (h *Handler) SendSignal(w http.ResponseWriter, r *http.Request) {
	var req service.SendSignalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, "SendSignal", err)
		return
	}
	if _, err := h.sess.SendSignal(r.Context(), auth.IdentityFromCtx(r.Context()), chi.URLParam(r, "token"), req); err != nil {
		writeError(w, r, "SendSignal", err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// GET /meetings/{token}/signals
func (h *Handler) FetchSignals(w http.ResponseWriter, r *http.Request) {
	items, err := h.sess.FetchSignals(r.Context(), auth.IdentityFromCtx(r.Context()), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, "FetchSignals", err)
		return
	}
	writeJSON(w, http.StatusOK, SignalsResponse{Items: lo.Map(items, toSignalItem)})
}

// POST /meetings/{token}/signals/prune
func (h *Handler) PruneSignals(w http.ResponseWriter, r *http.Request) {
	var in PruneRequest
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, "PruneSignals", err)
		return
	}
	var req service.PruneSignalsRequest
	if in.WindowSeconds != nil {
		window, err := service.PruneWindowFromSeconds(*in.WindowSeconds)
		if err != nil {
			writeError(w, r, "PruneSignals", err)
			return
		}
		req.Window = window
	}
	n, err := h.sess.PruneSignals(r.Context(), chi.URLParam(r, "token"), req)
	if err != nil {
		writeError(w, r, "PruneSignals", err)
		return
	}
	writeJSON(w, http.StatusOK, PruneResponse{DeletedCount: n})
}
