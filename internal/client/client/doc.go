// Package client contains the client-side building blocks for the EaseBox
// identity service.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface):
//     RegisterIndividual, RequestVerification, VerifyOTP, SignInWithProvider,
//     Refresh, GetLinkedProviders, UnlinkProvider and Ping.
//  2. A concrete gRPC implementation (see GRPCClient) that keeps the current
//     session, injects the access token via an interceptor, transparently
//     refreshes expired tokens and maps gRPC statuses to errors.
//
// # Error Handling
//
// Transport conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotSignedIn. Domain
// failures come back as *ServiceError; ErrorCode extracts the code.
//
// GRPCClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation/timeouts.
package client
