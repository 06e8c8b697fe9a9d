package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service. Messages are
// google.protobuf.Struct so clients need no generated stubs.
const ServiceName = "meeting.v1.MeetingService"

type MeetingServiceServer interface {
	CreateMeeting(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMeeting(context.Context, *structpb.Struct) (*structpb.Struct, error)
	JoinMeeting(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LeaveMeeting(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EndMeeting(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListParticipants(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateMedia(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendSignal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FetchSignals(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PruneSignals(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SyncProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFn func(MeetingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func method(name string, fn unaryFn) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			h := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(MeetingServiceServer), ctx, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return h(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, in, info, h)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MeetingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		method("CreateMeeting", MeetingServiceServer.CreateMeeting),
		method("GetMeeting", MeetingServiceServer.GetMeeting),
		method("JoinMeeting", MeetingServiceServer.JoinMeeting),
		method("LeaveMeeting", MeetingServiceServer.LeaveMeeting),
		method("EndMeeting", MeetingServiceServer.EndMeeting),
		method("ListParticipants", MeetingServiceServer.ListParticipants),
		method("UpdateMedia", MeetingServiceServer.UpdateMedia),
		method("SendSignal", MeetingServiceServer.SendSignal),
		method("FetchSignals", MeetingServiceServer.FetchSignals),
		method("PruneSignals", MeetingServiceServer.PruneSignals),
		method("SyncProfile", MeetingServiceServer.SyncProfile),
	},
	Metadata: "meeting/v1/meeting.proto",
}

func Register(gs grpc.ServiceRegistrar, s MeetingServiceServer) {
	gs.RegisterService(&serviceDesc, s)
}

// FullMethod returns the invoke path of a MeetingService method.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}
