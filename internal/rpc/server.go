package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"path/filepath"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/funvibe/objectify/internal/config"
	"github.com/funvibe/objectify/internal/ctxlog"
	"github.com/funvibe/objectify/internal/pipeline"
	"github.com/funvibe/objectify/internal/resolver"
	"github.com/funvibe/objectify/pkg/typerep"
)

// Server resolves targets on behalf of gRPC clients. Every call gets its
// own loader and traversal context, so calls run concurrently.
type Server struct {
	dir     string
	resolve config.ResolveConfig
	logger  *slog.Logger
	schema  *schema
}

// NewServer creates a server resolving relative target paths against dir.
func NewServer(dir string, rc config.ResolveConfig, logger *slog.Logger) (*Server, error) {
	sc, err := loadSchema()
	if err != nil {
		return nil, err
	}
	return &Server{dir: dir, resolve: rc, logger: logger, schema: sc}, nil
}

// Register adds the Resolver service to gs.
func (s *Server) Register(gs *grpc.Server) {
	sd := &grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*interface{})(nil),
		Streams:     []grpc.StreamDesc{},
		Metadata:    s.schema.service.GetFile().GetName(),
	}
	for _, method := range s.schema.service.GetMethods() {
		if method.GetName() != "Resolve" {
			continue
		}
		sd.Methods = append(sd.Methods, grpc.MethodDesc{
			MethodName: method.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				h := srv.(*Server)
				in := h.schema.newRequest()
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return h.Resolve(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: resolveMethod}
				return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
					return h.Resolve(ctx, req.(*dynamicpb.Message))
				})
			},
		})
	}
	gs.RegisterService(sd, s)
}

// NewGRPCServer returns a grpc.Server with the Resolver service registered
// and the server logger attached to every call context.
func (s *Server) NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.withLogger))
	gs := grpc.NewServer(opts...)
	s.Register(gs)
	return gs
}

func (s *Server) withLogger(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	log := s.logger.With("method", info.FullMethod)
	resp, err := handler(ctxlog.WithLogger(ctx, log), req)
	if err != nil {
		log.Warn("call failed", "code", status.Code(err), "error", err)
	}
	return resp, err
}

// Resolve handles one ResolveRequest.
func (s *Server) Resolve(ctx context.Context, in *dynamicpb.Message) (*dynamicpb.Message, error) {
	t := targetFromRequest(in)
	if t.As == "" && t.Source == config.SourceHCL {
		t.As = "Expr"
	}
	if err := t.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := localPaths(t); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	res, err := pipeline.ResolveTarget(ctx, s.dir, t, s.resolve)
	if err != nil {
		return nil, statusFor(err)
	}
	data, err := typerep.Marshal(res.Tree.Type)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s.schema.responseFromResult(res, data), nil
}

// localPaths rejects target paths that leave the server directory.
func localPaths(t config.Target) error {
	paths := append([]string{t.Pkg, t.File}, t.ImportPaths...)
	for _, p := range paths {
		if p != "" && !filepath.IsLocal(p) {
			return fmt.Errorf("path %q must be relative to the server directory", p)
		}
	}
	return nil
}

func statusFor(err error) error {
	switch {
	case errors.Is(err, resolver.ErrUnrepresentable):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.InvalidArgument, err.Error())
	}
}

// Serve accepts connections on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	gs := s.NewGRPCServer()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			gs.GracefulStop()
		case <-done:
		}
	}()
	s.logger.Info("serving", "addr", lis.Addr().String(), "service", serviceName)
	if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serving grpc: %w", err)
	}
	return nil
}
