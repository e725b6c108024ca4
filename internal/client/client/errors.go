package client

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/easebox-identity/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotSignedIn  = errors.New("not signed in")
)

// ServiceError is a domain failure reported by the server. Code is the
// machine readable reason, e.g. EMAIL_EXISTS.
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the domain error code carried by err, or "" if there is none.
// Both *ServiceError values and raw gRPC statuses with ErrorInfo details are understood.
func ErrorCode(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	return reasonOf(st)
}

func reasonOf(st *status.Status) string {
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Domain == common.ErrorDomain {
			return info.Reason
		}
	}
	return ""
}
