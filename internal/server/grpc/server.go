// Package grpc exposes the standard gRPC health service for the directory.
// The reported status follows the account store: SERVING while it answers
// pings, NOT_SERVING otherwise.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/userdir/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service entry of the account directory.
const ServiceName = "userdir.AccountDirectory"

const defaultProbeInterval = 10 * time.Second

// defaultShutdownGrace bounds GracefulStop; open health Watch streams never
// finish on their own.
const defaultShutdownGrace = 5 * time.Second

// Pinger is the part of the account store the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	address  string
	logger   logging.Logger
	store    Pinger
	health   *health.Server
	interval time.Duration
	timeout  time.Duration
	grace    time.Duration
}

// NewGRPCServer builds a health server on address probing store every
// interval; a non-positive interval selects the default.
func NewGRPCServer(address string, l logging.Logger, store Pinger, interval, timeout time.Duration) *GRPCServer {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		store:    store,
		health:   health.NewServer(),
		interval: interval,
		timeout:  timeout,
		grace:    defaultShutdownGrace,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
	go s.watchStore(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		stopServer(srv, s.grace)
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

type stopper interface {
	GracefulStop()
	Stop()
}

// stopServer drains in-flight RPCs for at most grace, then closes whatever
// is still open.
func stopServer(srv stopper, grace time.Duration) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		srv.Stop()
		<-done
	}
}
