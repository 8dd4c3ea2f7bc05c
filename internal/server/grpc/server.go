// Package grpc serves the gRPC side of the server: the standard health
// service, answering SERVING only while the store responds to a ping.
package grpc

import (
	"context"
	"net"

	"github.com/deferscky/stringeditor/internal/dbx"
	"github.com/deferscky/stringeditor/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type GRPCServer struct {
	grpc_health_v1.UnimplementedHealthServer
	address string
	store   dbx.Pinger
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, store dbx.Pinger) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		store:   store,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	grpc_health_v1.RegisterHealthServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
