package grpcx

import (
	"context"
	"fmt"
	"math"

	"github.com/cwrk-planet/meeting-service/internal/auth"
	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/service"

	"github.com/samber/lo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type Server struct {
	sess *service.Session
}

func NewServer(sess *service.Session) *Server {
	return &Server{sess: sess}
}

var _ MeetingServiceServer = (*Server)(nil)

func (s *Server) CreateMeeting(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := service.CreateMeetingRequest{
		Title:       str(in, "title"),
		Description: optStr(in, "description"),
	}
	if n, ok := num(in, "max_participants"); ok {
		req.MaxParticipants = lo.ToPtr(int(n))
	}
	out, err := s.sess.CreateMeeting(ctx, auth.IdentityFromCtx(ctx), req)
	if err != nil {
		return nil, mapErr(err)
	}
	return reply(map[string]any{"meeting_id": out.MeetingID, "token": out.Token})
}

func (s *Server) GetMeeting(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	m, err := s.sess.GetMeeting(ctx, str(in, "token"))
	if err != nil {
		return nil, mapErr(err)
	}
	return reply(meetingMap(m))
}

func (s *Server) JoinMeeting(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	out, err := s.sess.Join(ctx, auth.IdentityFromCtx(ctx), str(in, "token"))
	if err != nil {
		return nil, mapErr(err)
	}
	return reply(map[string]any{
		"meeting":        meetingMap(out.Meeting),
		"participant_id": out.Participant.ID,
		"peer_id":        out.Participant.PeerID,
		"already_joined": out.AlreadyJoined,
	})
}

func (s *Server) LeaveMeeting(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.sess.Leave(ctx, auth.IdentityFromCtx(ctx), str(in, "token")); err != nil {
		return nil, mapErr(err)
	}
	return reply(map[string]any{"success": true})
}

func (s *Server) EndMeeting(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.sess.EndMeeting(ctx, auth.IdentityFromCtx(ctx), str(in, "token")); err != nil {
		return nil, mapErr(err)
	}
	return reply(map[string]any{"success": true})
}

func (s *Server) ListParticipants(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.sess.ListActive(ctx, str(in, "token"))
	if err != nil {
		return nil, mapErr(err)
	}
	return reply(map[string]any{"items": lo.Map(items, func(p domain.Participant, _ int) any {
		return participantMap(p)
	})})
}

func (s *Server) UpdateMedia(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := service.UpdateMediaRequest{Audio: optBool(in, "audio"), Video: optBool(in, "video")}
	p, err := s.sess.UpdateMedia(ctx, auth.IdentityFromCtx(ctx), str(in, "token"), req)
	if err != nil {
		return nil, mapErr(err)
	}
	return reply(participantMap(*p))
}

func (s *Server) SendSignal(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sig, err := s.sess.SendSignal(ctx, auth.IdentityFromCtx(ctx), str(in, "token"), service.SendSignalRequest{
		To:      str(in, "to"),
		Type:    str(in, "type"),
		Payload: str(in, "payload"),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return reply(map[string]any{"success": true, "id": sig.ID})
}

func (s *Server) FetchSignals(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.sess.FetchSignals(ctx, auth.IdentityFromCtx(ctx), str(in, "token"))
	if err != nil {
		return nil, mapErr(err)
	}
	return reply(map[string]any{"items": lo.Map(items, func(sg domain.Signal, _ int) any {
		return map[string]any{
			"id":            sg.ID,
			"from":          sg.FromUserID,
			"to":            sg.ToUserID,
			"type":          sg.Type,
			"payload":       sg.Payload,
			"created_at_ms": sg.CreatedAt.UnixMilli(),
		}
	})})
}

func (s *Server) PruneSignals(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req service.PruneSignalsRequest
	if n, ok := num(in, "window_seconds"); ok {
		if math.IsNaN(n) || math.Abs(n) > float64(service.MaxPruneWindowSeconds) {
			return nil, mapErr(fmt.Errorf("%w: window_seconds out of range", domain.ErrInvalidArgument))
		}
		window, err := service.PruneWindowFromSeconds(int64(n))
		if err != nil {
			return nil, mapErr(err)
		}
		req.Window = window
	}
	n, err := s.sess.PruneSignals(ctx, str(in, "token"), req)
	if err != nil {
		return nil, mapErr(err)
	}
	return reply(map[string]any{"deleted_count": n})
}

func (s *Server) SyncProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	u, err := s.sess.SyncProfile(ctx, auth.IdentityFromCtx(ctx), service.SyncProfileRequest{
		Email:       str(in, "email"),
		DisplayName: str(in, "display_name"),
		AvatarURL:   optStr(in, "avatar_url"),
	})
	if err != nil {
		return nil, mapErr(err)
	}
	out := map[string]any{
		"id":           u.ID,
		"email":        u.Email,
		"display_name": u.DisplayName,
	}
	if u.AvatarURL != nil {
		out["avatar_url"] = *u.AvatarURL
	}
	return reply(out)
}

// -------- helpers --------

func mapErr(err error) error {
	var code codes.Code
	switch domain.KindOf(err) {
	case domain.KindUnauthenticated:
		code = codes.Unauthenticated
	case domain.KindUserNotFound, domain.KindNotFound:
		code = codes.NotFound
	case domain.KindForbidden:
		code = codes.PermissionDenied
	case domain.KindMeetingFull:
		code = codes.ResourceExhausted
	case domain.KindInvalidArgument:
		code = codes.InvalidArgument
	case domain.KindConflict:
		code = codes.Aborted
	default:
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}

func reply(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode reply: %v", err)
	}
	return out, nil
}

func meetingMap(m *domain.Meeting) map[string]any {
	out := map[string]any{
		"id":               m.ID,
		"token":            m.Token,
		"host_id":          m.HostID,
		"title":            m.Title,
		"is_active":        m.IsActive,
		"max_participants": m.MaxParticipants,
		"created_at_ms":    m.CreatedAt.UnixMilli(),
	}
	if m.Description != nil {
		out["description"] = *m.Description
	}
	if m.EndedAt != nil {
		out["ended_at_ms"] = m.EndedAt.UnixMilli()
	}
	return out
}

func participantMap(p domain.Participant) map[string]any {
	return map[string]any{
		"id":            p.ID,
		"user_id":       p.UserID,
		"peer_id":       p.PeerID,
		"joined_at_ms":  p.JoinedAt.UnixMilli(),
		"audio_enabled": p.IsAudioEnabled,
		"video_enabled": p.IsVideoEnabled,
	}
}

func str(in *structpb.Struct, key string) string {
	if v, ok := in.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func optStr(in *structpb.Struct, key string) *string {
	v, ok := in.GetFields()[key]
	if !ok {
		return nil
	}
	if _, isStr := v.GetKind().(*structpb.Value_StringValue); !isStr {
		return nil
	}
	return lo.ToPtr(v.GetStringValue())
}

func optBool(in *structpb.Struct, key string) *bool {
	v, ok := in.GetFields()[key]
	if !ok {
		return nil
	}
	if _, isBool := v.GetKind().(*structpb.Value_BoolValue); !isBool {
		return nil
	}
	return lo.ToPtr(v.GetBoolValue())
}

func num(in *structpb.Struct, key string) (float64, bool) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, false
	}
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
		return 0, false
	}
	return v.GetNumberValue(), true
}
