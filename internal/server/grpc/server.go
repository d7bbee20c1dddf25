// Package grpcserver exposes the sign-in token service over gRPC.
package grpcserver

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/autofill-glue/internal/convert"
	"github.com/and161185/autofill-glue/internal/errs"
	"github.com/and161185/autofill-glue/internal/signinapi"
	"github.com/and161185/autofill-glue/internal/tokensvc"
)

// TokenService is what the handlers need from the token service.
type TokenService interface {
	tokensvc.Service
	Verify(ctx context.Context, token, aud string) (uuid.UUID, error)
}

// Server wires the token service into gRPC handlers.
type Server struct {
	svc TokenService
	log *zap.Logger
}

var _ signinapi.TokenServiceServer = (*Server)(nil)

// New constructs the gRPC handlers.
func New(svc TokenService, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, log: log}
}

// Enroll registers a device account.
func (s *Server) Enroll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	account, secret, err := convert.FromEnrollRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	id, err := s.svc.Enroll(ctx, account, secret)
	if err != nil {
		return nil, s.toStatus("enroll", err)
	}
	return convert.ToEnrollResponse(id), nil
}

// IssueTokens exchanges a device secret for SID and LSID.
func (s *Server) IssueTokens(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	account, secret, err := convert.FromIssueRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	device, _ := DeviceIDFromCtx(ctx)
	tok, err := s.svc.Issue(ctx, account, secret, device)
	if err != nil {
		return nil, s.toStatus("issue tokens", err)
	}
	return convert.ToIssueResponse(tok), nil
}

// VerifyToken checks a SID or LSID and returns its account ID.
func (s *Server) VerifyToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	token, aud, err := convert.FromVerifyRequest(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad request: %v", err)
	}
	if aud != tokensvc.AudienceSID && aud != tokensvc.AudienceLSID {
		return nil, status.Errorf(codes.InvalidArgument, "unknown audience %q", aud)
	}
	id, err := s.svc.Verify(ctx, token, aud)
	if err != nil {
		return nil, s.toStatus("verify token", err)
	}
	return convert.ToVerifyResponse(id), nil
}

// toStatus maps service errors to gRPC codes. Internal details stay in the log.
func (s *Server) toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "account already exists")
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "bad credentials")
	case errors.Is(err, errs.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "rate limited")
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		s.log.Error(op+" failed", zap.Error(err))
		return status.Errorf(codes.Internal, "%s: internal error", op)
	}
}
