// Package tokenclient is the device side of the sign-in token service. It
// satisfies signin.TokenSource over gRPC.
package tokenclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/and161185/autofill-glue/internal/convert"
	"github.com/and161185/autofill-glue/internal/errs"
	"github.com/and161185/autofill-glue/internal/model"
	"github.com/and161185/autofill-glue/internal/signin"
	"github.com/and161185/autofill-glue/internal/signinapi"
)

// Secrets looks up enrolled device secrets.
type Secrets interface {
	DeviceID() string
	Secret(account string) (string, bool)
}

// Client calls TokenService.
type Client struct {
	api  signinapi.TokenServiceClient
	keys Secrets
	log  *zap.Logger
}

var _ signin.TokenSource = (*Client)(nil)

// New wraps an established connection.
func New(conn grpc.ClientConnInterface, keys Secrets, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{api: signinapi.NewTokenServiceClient(conn), keys: keys, log: log}
}

// IssueTokens exchanges the stored secret of account for SID and LSID.
func (c *Client) IssueTokens(ctx context.Context, account string) (model.Credentials, error) {
	secret, ok := c.keys.Secret(account)
	if !ok {
		return model.Credentials{}, fmt.Errorf("no secret for %q: %w", account, errs.ErrNotFound)
	}
	resp, err := c.api.IssueTokens(c.outgoing(ctx), convert.ToIssueRequest(account, secret))
	if err != nil {
		return model.Credentials{}, fromStatus(err)
	}
	tok, err := convert.FromIssueResponse(resp)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("issue tokens: %w", err)
	}
	if tok.SID == "" || tok.LSID == "" {
		return model.Credentials{}, fmt.Errorf("issue tokens: empty token in response")
	}
	c.log.Debug("tokens issued", zap.String("account", account), zap.Time("expires_at", tok.ExpiresAt))
	return model.Credentials{Account: account, SID: tok.SID, LSID: tok.LSID}, nil
}

// Enroll registers account with secret on the server.
func (c *Client) Enroll(ctx context.Context, account, secret string) (uuid.UUID, error) {
	resp, err := c.api.Enroll(c.outgoing(ctx), convert.ToEnrollRequest(account, secret))
	if err != nil {
		return uuid.Nil, fromStatus(err)
	}
	return convert.FromEnrollResponse(resp)
}

// Verify asks the server which account a SID or LSID belongs to.
func (c *Client) Verify(ctx context.Context, token, audience string) (uuid.UUID, error) {
	resp, err := c.api.VerifyToken(c.outgoing(ctx), convert.ToVerifyRequest(token, audience))
	if err != nil {
		return uuid.Nil, fromStatus(err)
	}
	return convert.FromVerifyResponse(resp)
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if id := c.keys.DeviceID(); id != "" {
		return metadata.AppendToOutgoingContext(ctx, signinapi.DeviceIDHeader, id)
	}
	return ctx
}

// fromStatus maps gRPC codes back to the shared sentinels.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var target error
	switch st.Code() {
	case codes.Unauthenticated:
		target = errs.ErrUnauthorized
	case codes.ResourceExhausted:
		target = errs.ErrRateLimited
	case codes.AlreadyExists:
		target = errs.ErrAlreadyExists
	case codes.InvalidArgument:
		target = errs.ErrInvalidArgument
	case codes.NotFound:
		target = errs.ErrNotFound
	case codes.Canceled:
		target = context.Canceled
	case codes.DeadlineExceeded:
		target = context.DeadlineExceeded
	default:
		return err
	}
	return fmt.Errorf("%w: %s", target, st.Message())
}

// LoadTLS builds transport credentials from a CA bundle. insecureTLS skips
// verification (dev only); plaintext disables TLS entirely.
func LoadTLS(caPath string, insecureTLS, plaintext bool) (credentials.TransportCredentials, error) {
	switch {
	case plaintext:
		return insecure.NewCredentials(), nil
	case insecureTLS:
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil //nolint:gosec // dev flag
	case caPath == "":
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// Dial connects to the token service.
func Dial(ctx context.Context, addr string, creds credentials.TransportCredentials) (*grpc.ClientConn, error) {
	//nolint:staticcheck // DialContext is supported through 1.x; migrate when grpc.NewClient is stable
	return grpc.DialContext(ctx, addr, grpc.WithTransportCredentials(creds))
}
