package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/auth"
	"github.com/cwrk-planet/meeting-service/internal/logger"
	"github.com/cwrk-planet/meeting-service/internal/service"
	grpcx "github.com/cwrk-planet/meeting-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/meeting-service/internal/transport/http"
	"github.com/cwrk-planet/meeting-service/internal/transport/ws"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, websocket and gRPC servers",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, done, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer done()

	slog.Info("starting meeting-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version, "storage", cfg.Storage.Driver)

	shutdownTracing := logger.InitTracing()
	defer func() { _ = shutdownTracing(context.Background()) }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- storage ---
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("store close", "err", err)
		}
	}()

	// --- services ---
	sess := newSession(cfg, store)
	verifier := auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.ClockSkew, nil)

	// --- WS Hub & Server ---
	hub := ws.NewHub()
	sess.SetNotifier(hub)
	wsServer := ws.NewServer(hub, sess)
	wsServer.SetPingEvery(cfg.WS.PingEvery)
	wsServer.SetLeaveOnDisconnect(cfg.WS.LeaveOnDisconnect)

	// --- HTTP ---
	router := httpx.NewRouter(httpx.Deps{
		Handler:     httpx.NewHandler(sess, cfg.ICE.WebRTC(), nil),
		Verifier:    verifier,
		WS:          wsServer,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// --- gRPC ---
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcx.UnaryServerInterceptor(10*time.Second),
			grpcx.AuthUnaryInterceptor(verifier),
		),
	)
	grpcx.Register(grpcServer, grpcx.NewServer(sess))

	// --- janitor ---
	if cfg.Signals.PruneInterval > 0 {
		go service.NewSignalJanitor(sess, cfg.Signals.PruneInterval).Run(ctx)
		slog.Info("signal janitor enabled", "every", cfg.Signals.PruneInterval, "retention", cfg.Signals.Retention)
	}

	// --- run both servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal")
	case runErr = <-errCh:
		slog.Error("server error", "err", runErr)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpSrv.Shutdown(ctxShutdown); err != nil {
		slog.Warn("http shutdown", "err", err)
	}
	slog.Info("stopped")
	return runErr
}
