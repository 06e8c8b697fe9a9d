package grpcx

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/auth"
	"github.com/cwrk-planet/meeting-service/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const mdAuthorization = "authorization"

type Verifier interface {
	Verify(token string) (string, error)
}

// Unary logging + recovery + timeout guard (если у вызова нет deadline)
func UnaryServerInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		start := time.Now()
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		l := logger.FromCtx(ctx, nil)
		defer func() {
			if r := recover(); r != nil {
				l.Error("grpc unary panic",
					"method", info.FullMethod,
					"panic", r,
					"stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal server error")
			}

			level := slog.LevelInfo
			if code := status.Code(err); code == codes.Internal || code == codes.Unknown {
				level = slog.LevelError
			}
			l.Log(ctx, level, "grpc unary",
				"method", info.FullMethod,
				"code", status.Code(err).String(),
				"dur_ms", time.Since(start).Milliseconds())
		}()

		return handler(ctx, req)
	}
}

// AuthUnaryInterceptor verifies "authorization: Bearer <jwt>" metadata and
// stores the identity in the context. Calls without metadata stay anonymous.
func AuthUnaryInterceptor(v Verifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		header := first(md.Get(mdAuthorization))
		if header == "" {
			return handler(ctx, req)
		}

		tok, err := auth.BearerToken(header)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid authorization")
		}
		identity, err := v.Verify(tok)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return handler(auth.WithIdentity(ctx, identity), req)
	}
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}
