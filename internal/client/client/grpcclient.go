package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	pb "github.com/dmitrijs2005/easebox-identity/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type Client interface {
	Close() error
	RegisterIndividual(ctx context.Context, in pb.RegisterIndividualRequest) (*pb.AuthResponse, error)
	RequestVerification(ctx context.Context, channel string) (string, error)
	VerifyOTP(ctx context.Context, channel, code string) (string, error)
	SignInWithProvider(ctx context.Context, provider, credential string) (*pb.AuthResponse, error)
	Refresh(ctx context.Context) error
	GetLinkedProviders(ctx context.Context) ([]string, error)
	UnlinkProvider(ctx context.Context, provider string) (string, error)
	Ping(ctx context.Context) error
	UserID() string
	SignOut()
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.IdentityServiceClient

	mu           sync.Mutex
	userID       string
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setSession(userID string, t pb.Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID != "" {
		s.userID = userID
	}
	s.accessToken = t.AccessToken
	s.refreshToken = t.RefreshToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	access, refresh := s.tokens()
	if access != "" {
		ctx = withAccessToken(ctx, access)
	}

	err := invoker(ctx, method, req, reply, cc, opts...)

	if err != nil {

		st, ok := status.FromError(err)
		if !ok {
			return err
		}

		if st.Code() != codes.Unauthenticated {
			return err
		}
		if st.Message() != common.ErrTokenExpired.Error() {
			return err
		}

		// the refresh call itself must never trigger another refresh
		if refresh == "" || method == pb.MethodRefreshTokens {
			return err
		}

		if rerr := s.Refresh(ctx); rerr != nil {
			return err
		}

		// TOKENS REFRESHED, creating context with new Access Token
		access, _ = s.tokens()
		ctx = withAccessToken(ctx, access)
		return invoker(ctx, method, req, reply, cc, opts...)

	}

	return err
}

func NewIdentityClientService(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {

	conn, err := grpc.NewClient(s.endpointURL, grpc.WithTransportCredentials(insecure.NewCredentials()), grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewIdentityServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// UserID returns the id of the signed in user, or "".
func (s *GRPCClient) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// SignOut forgets the current session locally.
func (s *GRPCClient) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID, s.accessToken, s.refreshToken = "", "", ""
}

func (s *GRPCClient) RegisterIndividual(ctx context.Context, in pb.RegisterIndividualRequest) (*pb.AuthResponse, error) {
	req, err := pb.Encode(in)
	if err != nil {
		return nil, err
	}

	out, err := s.client.RegisterIndividual(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	return s.authResponse(out)
}

func (s *GRPCClient) SignInWithProvider(ctx context.Context, provider, credential string) (*pb.AuthResponse, error) {
	req, err := pb.Encode(pb.SignInRequest{Provider: provider, Credential: credential})
	if err != nil {
		return nil, err
	}

	out, err := s.client.SignInWithProvider(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	return s.authResponse(out)
}

func (s *GRPCClient) authResponse(out *structpb.Struct) (*pb.AuthResponse, error) {
	var resp pb.AuthResponse
	if err := pb.Decode(out, &resp); err != nil {
		return nil, err
	}
	s.setSession(resp.UserID, resp.Tokens)
	return &resp, nil
}

// RequestVerification asks for a code on channel ("email" or "phone") for
// the signed in user and returns the server's confirmation message.
func (s *GRPCClient) RequestVerification(ctx context.Context, channel string) (string, error) {
	return s.verification(ctx, s.client.RequestVerification, pb.VerificationRequest{Type: channel})
}

func (s *GRPCClient) VerifyOTP(ctx context.Context, channel, code string) (string, error) {
	return s.verification(ctx, s.client.VerifyOTP, pb.VerificationRequest{Type: channel, Code: code})
}

type unaryCall func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

func (s *GRPCClient) verification(ctx context.Context, call unaryCall, in pb.VerificationRequest) (string, error) {
	in.UserID = s.UserID()
	if in.UserID == "" {
		return "", ErrNotSignedIn
	}
	return s.message(ctx, call, in)
}

func (s *GRPCClient) message(ctx context.Context, call unaryCall, in any) (string, error) {
	req, err := pb.Encode(in)
	if err != nil {
		return "", err
	}

	out, err := call(ctx, req)
	if err != nil {
		return "", s.mapError(err)
	}

	var resp pb.MessageResponse
	if err := pb.Decode(out, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Refresh exchanges the stored refresh token for a new pair.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	_, refresh := s.tokens()
	if refresh == "" {
		return ErrNotSignedIn
	}

	req, err := pb.Encode(pb.RefreshRequest{RefreshToken: refresh})
	if err != nil {
		return err
	}

	out, err := s.client.RefreshTokens(ctx, req)
	if err != nil {
		return s.mapError(err)
	}

	var t pb.Tokens
	if err := pb.Decode(out, &t); err != nil {
		return err
	}
	s.setSession("", t)
	return nil
}

func (s *GRPCClient) GetLinkedProviders(ctx context.Context) ([]string, error) {
	out, err := s.client.GetLinkedProviders(ctx, &structpb.Struct{})
	if err != nil {
		return nil, s.mapError(err)
	}

	var resp pb.ProvidersResponse
	if err := pb.Decode(out, &resp); err != nil {
		return nil, err
	}
	return resp.Providers, nil
}

func (s *GRPCClient) UnlinkProvider(ctx context.Context, provider string) (string, error) {
	return s.message(ctx, s.client.UnlinkProvider, pb.ProviderRequest{Provider: provider})
}

func (s *GRPCClient) Ping(ctx context.Context) error {

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	resp, err := s.client.Ping(ctx, &structpb.Struct{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.GetFields()["status"].GetStringValue() != "OK" {
		return ErrUnavailable
	}

	return nil

}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	if code := reasonOf(st); code != "" {
		return &ServiceError{Code: code, Message: st.Message()}
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
