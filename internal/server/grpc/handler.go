package grpc

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	pb "github.com/dmitrijs2005/easebox-identity/internal/proto"
	"github.com/dmitrijs2005/easebox-identity/internal/server/models"
	"github.com/dmitrijs2005/easebox-identity/internal/server/services"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const minPasswordLength = 8

func invalid(format string, args ...any) error {
	return status.Error(codes.InvalidArgument, fmt.Sprintf(format, args...))
}

func decode(in *structpb.Struct, v any) error {
	if err := pb.Decode(in, v); err != nil {
		return invalid("Validation failed: malformed request")
	}
	return nil
}

func (s *GRPCServer) encode(ctx context.Context, v any) (*structpb.Struct, error) {
	out, err := pb.Encode(v)
	if err != nil {
		s.logger.Error(ctx, "encode response", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func toProfile(p models.Profile) pb.Profile {
	return pb.Profile{
		ID:        p.ID,
		UserID:    p.UserID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toAuthResponse(res *services.AuthResult) pb.AuthResponse {
	out := pb.AuthResponse{
		Tokens:  pb.Tokens{AccessToken: res.Tokens.AccessToken, RefreshToken: res.Tokens.RefreshToken},
		Profile: toProfile(res.Profile),
		UserID:  res.UserID,
	}
	if u := res.User; u != nil {
		out.User = &pb.User{
			ID:            u.ID,
			Email:         u.Email,
			UserType:      string(u.UserType),
			EmailVerified: u.EmailVerified,
			PhoneVerified: u.PhoneVerified,
			TermsAccepted: u.TermsAccepted,
			IsActive:      u.IsActive,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		}
	}
	return out
}

func validateRegistration(req pb.RegisterIndividualRequest) error {
	var problems []string
	if addr, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil || addr.Name != "" {
		problems = append(problems, "email: Invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("password: Password must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(req.FirstName) == "" {
		problems = append(problems, "firstName: First name is required")
	}
	if strings.TrimSpace(req.LastName) == "" {
		problems = append(problems, "lastName: Last name is required")
	}
	if len(problems) > 0 {
		return invalid("Validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func parseVerification(req pb.VerificationRequest) (models.Channel, error) {
	ch, err := models.ParseChannel(req.Type)
	if err != nil {
		return "", invalid("Validation failed: type: Type must be 'email' or 'phone'")
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		return "", invalid("Validation failed: userId: Invalid user ID")
	}
	return ch, nil
}

func (s *GRPCServer) RegisterIndividual(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {

	var req pb.RegisterIndividualRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	res, err := s.registration.RegisterIndividual(ctx, services.RegisterInput{
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		TermsAccepted: req.TermsAccepted,
	})
	if err != nil {
		return nil, s.toStatus(ctx, pb.MethodRegisterIndividual, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", res.UserID)
	return s.encode(ctx, toAuthResponse(res))
}

func (s *GRPCServer) RequestVerification(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {

	var req pb.VerificationRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	ch, err := parseVerification(req)
	if err != nil {
		return nil, err
	}

	if err := s.verification.RequestVerification(ctx, req.UserID, ch); err != nil {
		return nil, s.toStatus(ctx, pb.MethodRequestVerification, err)
	}

	what := "email"
	if ch == models.ChannelPhone {
		what = "SMS"
	}
	return s.encode(ctx, pb.MessageResponse{Success: true, Message: "Verification " + what + " sent successfully"})
}

func (s *GRPCServer) VerifyOTP(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {

	var req pb.VerificationRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	ch, err := parseVerification(req)
	if err != nil {
		return nil, err
	}
	if !common.IsNumericCode(req.Code, services.OTPDigits) {
		return nil, invalid("Validation failed: code: Verification code must be %d digits", services.OTPDigits)
	}

	if err := s.verification.VerifyOTP(ctx, req.UserID, req.Code, ch); err != nil {
		return nil, s.toStatus(ctx, pb.MethodVerifyOTP, err)
	}

	what := "Email"
	if ch == models.ChannelPhone {
		what = "Phone"
	}
	return s.encode(ctx, pb.MessageResponse{Success: true, Message: what + " verified successfully"})
}

func (s *GRPCServer) SignInWithProvider(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {

	var req pb.SignInRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if !models.IsSupportedProvider(req.Provider) {
		return nil, appStatus(common.NewAppError(common.ErrInvalidProvider, "Invalid OAuth provider: "+req.Provider))
	}
	if req.Credential == "" {
		return nil, invalid("Validation failed: credential: Credential is required")
	}

	res, outcome, err := s.linking.SignIn(ctx, req.Provider, req.Credential)
	if err != nil {
		return nil, s.toStatus(ctx, pb.MethodSignInWithProvider, err)
	}

	resp := toAuthResponse(res)
	resp.IsNewUser = &outcome.IsNewUser
	return s.encode(ctx, resp)
}

func (s *GRPCServer) RefreshTokens(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {

	var req pb.RefreshRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.RefreshToken == "" {
		return nil, invalid("Validation failed: refreshToken: Refresh token is required")
	}

	pair, err := s.tokens.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, pb.MethodRefreshTokens, err)
	}

	return s.encode(ctx, pb.Tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *GRPCServer) GetLinkedProviders(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {

	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Authentication required")
	}

	providers, err := s.linking.GetLinkedProviders(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, pb.MethodGetLinkedProviders, err)
	}

	return s.encode(ctx, pb.ProvidersResponse{Providers: providers})
}

func (s *GRPCServer) UnlinkProvider(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {

	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Authentication required")
	}

	var req pb.ProviderRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if !models.IsSupportedProvider(req.Provider) {
		return nil, appStatus(common.NewAppError(common.ErrInvalidProvider, "Invalid OAuth provider: "+req.Provider))
	}

	if err := s.linking.UnlinkProvider(ctx, userID, req.Provider); err != nil {
		return nil, s.toStatus(ctx, pb.MethodUnlinkProvider, err)
	}

	s.logger.Info(ctx, "Provider unlinked", "user_id", userID, "provider", req.Provider)
	return s.encode(ctx, pb.MessageResponse{Success: true, Message: req.Provider + " account unlinked successfully"})
}

func (s *GRPCServer) Ping(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {

	return structpb.NewStruct(map[string]any{"status": "OK"})

}
