package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/auth"
	"github.com/cwrk-planet/meeting-service/internal/badgerstore"
	"github.com/cwrk-planet/meeting-service/internal/service"
	transporthttp "github.com/cwrk-planet/meeting-service/internal/transport/http"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t   *testing.T
	srv *httptest.Server
	jwt *auth.JWT
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := badgerstore.Open(badgerstore.Config{Path: t.TempDir()}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess := service.NewSession(badgerstore.NewStore(db), nil)
	j := auth.NewJWT("test-secret", "meetings", "", time.Minute, nil)
	ice := []webrtc.ICEServer{{URLs: []string{"stun:stun.example.org:3478"}}}

	router := transporthttp.NewRouter(transporthttp.Deps{
		Handler:  transporthttp.NewHandler(sess, ice, nil),
		Verifier: j,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &fixture{t: t, srv: srv, jwt: j}
}

// do sends a request as identity ("" = anonymous) and decodes the JSON reply into out.
func (f *fixture) do(method, path, identity string, body any, out any) int {
	f.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(f.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, rd)
	require.NoError(f.t, err)
	if identity != "" {
		tok, err := f.jwt.Issue(identity, "", time.Hour)
		require.NoError(f.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(f.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *fixture) signup(identity string) string {
	f.t.Helper()
	var u transporthttp.UserResponse
	code := f.do(http.MethodPut, "/users/me", identity, map[string]any{"display_name": identity}, &u)
	require.Equal(f.t, http.StatusOK, code)
	return u.ID
}

func TestHealthAndICE(t *testing.T) {
	f := newFixture(t)

	var h transporthttp.HealthResponse
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", "", nil, &h))
	require.Equal(t, "ok", h.Status)
	require.NotZero(t, h.Timestamp)

	var ice map[string][]map[string]any
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/ice-servers", "", nil, &ice))
	require.Len(t, ice["ice_servers"], 1)
}

func TestMeetingFlow(t *testing.T) {
	f := newFixture(t)
	f.signup("host")
	guestID := f.signup("guest")
	f.signup("late")

	var created transporthttp.CreateMeetingResponse
	code := f.do(http.MethodPost, "/meetings", "host", map[string]any{"title": "demo", "max_participants": 1}, &created)
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, created.Token, 32)

	var m transporthttp.MeetingItem
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/meetings/"+created.Token, "", nil, &m))
	require.Equal(t, "demo", m.Title)
	require.True(t, m.IsActive)
	require.Equal(t, 1, m.MaxParticipants)

	var joined transporthttp.JoinResponse
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/meetings/"+created.Token+"/join", "guest", nil, &joined))
	require.False(t, joined.AlreadyJoined)
	require.NotEmpty(t, joined.PeerID)

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/meetings/"+created.Token+"/join", "guest", nil, &joined))
	require.True(t, joined.AlreadyJoined)

	var full transporthttp.ErrorResponse
	require.Equal(t, http.StatusConflict, f.do(http.MethodPost, "/meetings/"+created.Token+"/join", "late", nil, &full))
	require.Equal(t, "meeting_full", full.Kind)

	var parts transporthttp.ParticipantsResponse
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/meetings/"+created.Token+"/participants", "", nil, &parts))
	require.Len(t, parts.Items, 1)
	require.Equal(t, guestID, parts.Items[0].UserID)

	var media transporthttp.ParticipantItem
	require.Equal(t, http.StatusOK, f.do(http.MethodPatch, "/meetings/"+created.Token+"/media", "guest", map[string]any{"audio": false}, &media))
	require.False(t, media.AudioEnabled)
	require.True(t, media.VideoEnabled)

	var errResp transporthttp.ErrorResponse
	require.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/meetings/"+created.Token+"/end", "guest", nil, &errResp))
	require.Equal(t, "forbidden", errResp.Kind)

	var ok transporthttp.SuccessResponse
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/meetings/"+created.Token+"/end", "host", nil, &ok))
	require.True(t, ok.Success)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/meetings/"+created.Token+"/end", "host", nil, &ok))

	require.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/meetings/"+created.Token+"/join", "late", nil, &errResp))
	require.Equal(t, "not_found", errResp.Kind)

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/meetings/"+created.Token+"/leave", "guest", nil, &ok))
}

func TestSignalsOverHTTP(t *testing.T) {
	f := newFixture(t)
	f.signup("a")
	bID := f.signup("b")

	var created transporthttp.CreateMeetingResponse
	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/meetings", "a", map[string]any{"title": "call"}, &created))
	base := "/meetings/" + created.Token

	var ok transporthttp.SuccessResponse
	code := f.do(http.MethodPost, base+"/signals", "a", map[string]any{"to": bID, "type": "offer", "payload": "p1"}, &ok)
	require.Equal(t, http.StatusOK, code)

	var got transporthttp.SignalsResponse
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, base+"/signals", "b", nil, &got))
	require.Len(t, got.Items, 1)
	require.Equal(t, "p1", got.Items[0].Payload)

	require.Equal(t, http.StatusOK, f.do(http.MethodGet, base+"/signals", "a", nil, &got))
	require.Empty(t, got.Items)

	// anonymous polling degrades to an empty list
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, base+"/signals", "", nil, &got))
	require.Empty(t, got.Items)
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/meetings/missing/signals", "b", nil, &got))
	require.Empty(t, got.Items)

	var pruned transporthttp.PruneResponse
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/signals/prune", "a", nil, &pruned))
	require.Zero(t, pruned.DeletedCount)

	var errResp transporthttp.ErrorResponse
	require.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/meetings/missing/signals/prune", "a", nil, &errResp))
}

func TestErrorMapping(t *testing.T) {
	f := newFixture(t)
	f.signup("a")

	var errResp transporthttp.ErrorResponse
	require.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/meetings", "", map[string]any{"title": "x"}, &errResp))
	require.Equal(t, "unauthenticated", errResp.Kind)

	require.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/meetings", "ghost", map[string]any{"title": "x"}, &errResp))
	require.Equal(t, "user_not_found", errResp.Kind)

	require.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/meetings", "a", map[string]any{"title": ""}, &errResp))
	require.Equal(t, "invalid_argument", errResp.Kind)

	require.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/meetings/nope", "", nil, &errResp))
	require.Equal(t, "not_found", errResp.Kind)

	var parts transporthttp.ParticipantsResponse
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/meetings/nope/participants", "", nil, &parts))
	require.Empty(t, parts.Items)

	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/meetings", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPruneRejectsOverflowingWindow(t *testing.T) {
	f := newFixture(t)
	f.signup("a")
	bID := f.signup("b")

	var created transporthttp.CreateMeetingResponse
	require.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/meetings", "a", map[string]any{"title": "call"}, &created))
	base := "/meetings/" + created.Token

	var ok transporthttp.SuccessResponse
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/signals", "a", map[string]any{"to": bID, "type": "offer", "payload": "p1"}, &ok))

	var errResp transporthttp.ErrorResponse
	for _, window := range []int64{18446744074, 9223372037, -1} {
		code := f.do(http.MethodPost, base+"/signals/prune", "a", map[string]any{"window_seconds": window}, &errResp)
		require.Equal(t, http.StatusBadRequest, code, "window %d", window)
		require.Equal(t, "invalid_argument", errResp.Kind)
	}

	var got transporthttp.SignalsResponse
	require.Equal(t, http.StatusOK, f.do(http.MethodGet, base+"/signals", "b", nil, &got))
	require.Len(t, got.Items, 1)
}
