// Package grpc exposes the identity services over gRPC.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/easebox-identity/internal/logging"
	pb "github.com/dmitrijs2005/easebox-identity/internal/proto"
	"github.com/dmitrijs2005/easebox-identity/internal/server/auth"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"github.com/dmitrijs2005/easebox-identity/internal/server/services"
	"google.golang.org/grpc"
)

type RegistrationService interface {
	RegisterIndividual(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
}

type VerificationService interface {
	RequestVerification(ctx context.Context, userID string, ch models.Channel) error
	VerifyOTP(ctx context.Context, userID, code string, ch models.Channel) error
}

type LinkingService interface {
	SignIn(ctx context.Context, provider, credential string) (*services.AuthResult, *services.OAuthResult, error)
	GetLinkedProviders(ctx context.Context, userID string) ([]string, error)
	UnlinkProvider(ctx context.Context, userID, provider string) error
}

type TokenService interface {
	RefreshTokens(ctx context.Context, refreshToken string) (auth.TokenPair, error)
}

// TokenVerifier authenticates access tokens on protected methods.
type TokenVerifier interface {
	Verify(token string, kind auth.TokenKind) (*auth.Claims, error)
}

// Services bundles what the handlers delegate to.
type Services struct {
	Registration RegistrationService
	Verification VerificationService
	Linking      LinkingService
	Tokens       TokenService
	Verifier     TokenVerifier
}

type GRPCServer struct {
	pb.UnimplementedIdentityServiceServer
	address      string
	registration RegistrationService
	verification VerificationService
	linking      LinkingService
	tokens       TokenService
	verifier     TokenVerifier
	logger       logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, s Services) (*GRPCServer, error) {
	return &GRPCServer{
		address:      a,
		logger:       l.With("module", "grpc_server"),
		registration: s.Registration,
		verification: s.Verification,
		linking:      s.Linking,
		tokens:       s.Tokens,
		verifier:     s.Verifier,
	}, nil
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.accessTokenInterceptor))
	pb.RegisterIdentityServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}
