package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func codeForClass(c common.ErrorClass) codes.Code {
	switch c {
	case common.ClassNotFound:
		return codes.NotFound
	case common.ClassConflict:
		return codes.FailedPrecondition
	case common.ClassServer:
		return codes.Internal
	case common.ClassRateLimited:
		return codes.ResourceExhausted
	default:
		return codes.InvalidArgument
	}
}

// appStatus converts a domain error into a status carrying its code as
// ErrorInfo.Reason.
func appStatus(ae *common.AppError) error {
	st := status.New(codeForClass(ae.Class()), ae.Message)
	if withInfo, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(ae.Code),
		Domain: common.ErrorDomain,
	}); err == nil {
		st = withInfo
	}
	return st.Err()
}

// toStatus maps a service error to the wire. Unexpected errors are logged and
// hidden behind a generic Internal status.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	if ae, ok := common.AsAppError(err); ok {
		if ae.Class() == common.ClassServer {
			s.logger.Error(ctx, "request failed", "method", method, "code", ae.Code)
		}
		return appStatus(ae)
	}

	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "token expired")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}

	s.logger.Error(ctx, "request failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}
