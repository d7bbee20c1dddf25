// Package tokensvc enrolls device accounts and exchanges device secrets for
// session tokens.
//
// A successful exchange yields two HS256 JWTs for the account: a short-lived
// SID and a long-lived LSID. Both carry the account ID as subject and a fresh
// UUID as jti; the audience tells them apart.
package tokensvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	pkgcrypto "github.com/and161185/autofill-glue/internal/crypto"
	"github.com/and161185/autofill-glue/internal/errs"
	"github.com/and161185/autofill-glue/internal/limiter"
	"github.com/and161185/autofill-glue/internal/model"
	"github.com/and161185/autofill-glue/internal/repository"
)

// Token audiences.
const (
	AudienceSID  = "sid"
	AudienceLSID = "lsid"
)

// Service defines the token exchange operations.
type Service interface {
	// Enroll registers a device account and returns its ID.
	Enroll(ctx context.Context, account, secret string) (uuid.UUID, error)
	// Issue authenticates account with secret on behalf of deviceID and mints tokens.
	Issue(ctx context.Context, account, secret, deviceID string) (model.IssuedTokens, error)
}

// Config holds signing parameters.
type Config struct {
	SigningKey []byte
	Issuer     string
	SIDTTL     time.Duration
	LSIDTTL    time.Duration
}

// DefaultConfig returns TTLs of one hour (SID) and thirty days (LSID).
// SigningKey must still be set.
func DefaultConfig() Config {
	return Config{Issuer: "autofill-signin", SIDTTL: time.Hour, LSIDTTL: 30 * 24 * time.Hour}
}

// TokenService implements Service.
type TokenService struct {
	accounts repository.AccountRepository
	lim      limiter.Limiter
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

var _ Service = (*TokenService)(nil)

// New constructs a TokenService.
func New(accounts repository.AccountRepository, lim limiter.Limiter, cfg Config, log *zap.Logger) *TokenService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TokenService{accounts: accounts, lim: lim, cfg: cfg, log: log, now: time.Now}
}

// Enroll creates an account record with a per-account salt.
func (s *TokenService) Enroll(ctx context.Context, account, secret string) (uuid.UUID, error) {
	if account == "" || secret == "" {
		return uuid.Nil, fmt.Errorf("%w: empty account/secret", errs.ErrInvalidArgument)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, err
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return uuid.Nil, err
	}
	rec := &model.AccountRecord{
		ID:         id,
		Name:       account,
		SecretHash: pkgcrypto.HashSecret([]byte(secret), salt),
		Salt:       salt,
	}
	if err := s.accounts.Create(ctx, rec); err != nil {
		return uuid.Nil, err
	}
	s.log.Info("account enrolled", zap.Stringer("account_id", id))
	return id, nil
}

// Issue applies rate limiting by (account, device) and mints SID/LSID.
func (s *TokenService) Issue(ctx context.Context, account, secret, deviceID string) (model.IssuedTokens, error) {
	if account == "" || secret == "" {
		return model.IssuedTokens{}, fmt.Errorf("%w: empty account/secret", errs.ErrInvalidArgument)
	}
	devHash := limiter.HashDevice(deviceID)

	allowed, retry, err := s.lim.Allow(ctx, account, devHash)
	if err != nil {
		return model.IssuedTokens{}, err
	}
	if !allowed {
		return model.IssuedTokens{}, fmt.Errorf("%w: retry in %s", errs.ErrRateLimited, retry.Round(time.Second))
	}

	rec, err := s.accounts.GetByName(ctx, account)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return model.IssuedTokens{}, err
	}
	if err != nil || !pkgcrypto.VerifySecret([]byte(secret), rec.Salt, rec.SecretHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, account, devHash); ferr == nil && blocked {
			return model.IssuedTokens{}, errs.ErrRateLimited
		}
		// unknown account and wrong secret look the same
		return model.IssuedTokens{}, errs.ErrUnauthorized
	}

	if err := s.lim.Success(ctx, account, devHash); err != nil {
		s.log.Warn("limiter reset failed", zap.Error(err))
	}

	now := s.now()
	sid, sidJTI, sidExp, err := s.mint(rec.ID, AudienceSID, now, s.cfg.SIDTTL)
	if err != nil {
		return model.IssuedTokens{}, err
	}
	lsid, _, _, err := s.mint(rec.ID, AudienceLSID, now, s.cfg.LSIDTTL)
	if err != nil {
		return model.IssuedTokens{}, err
	}

	issue := model.TokenIssue{ID: sidJTI, AccountID: rec.ID, DeviceHash: devHash, ExpiresAt: sidExp}
	if err := s.accounts.RecordIssue(ctx, issue); err != nil {
		return model.IssuedTokens{}, fmt.Errorf("record issue: %w", err)
	}

	s.log.Info("tokens issued", zap.Stringer("account_id", rec.ID), zap.Time("expires_at", sidExp))
	return model.IssuedTokens{SID: sid, LSID: lsid, ExpiresAt: sidExp}, nil
}

// mint signs an HS256 JWT for subject.
func (s *TokenService) mint(subject uuid.UUID, aud string, now time.Time, ttl time.Duration) (string, uuid.UUID, time.Time, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", uuid.Nil, time.Time{}, err
	}
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   subject.String(),
		Audience:  jwt.ClaimStrings{aud},
		ID:        jti.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	return signed, jti, exp, err
}

// Verify parses token, checks its signature, expiry and audience, and
// returns the account ID it was minted for. Tokens of a removed account
// are rejected.
func (s *TokenService) Verify(ctx context.Context, token, aud string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.cfg.SigningKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(aud),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", errs.ErrUnauthorized, err)
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	rec, err := s.accounts.GetByID(ctx, id)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return uuid.Nil, fmt.Errorf("%w: unknown account", errs.ErrUnauthorized)
	case err != nil:
		return uuid.Nil, err
	}
	return rec.ID, nil
}
