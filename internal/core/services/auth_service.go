package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loanlink/internal/core/domain"
	"loanlink/internal/pkg/jwt"
)

// JWTVerifier verifies identity-provider tokens locally with a shared secret or public key
type JWTVerifier struct {
	validator *jwt.Validator
}

// NewJWTVerifier creates a verifier from a token validator
func NewJWTVerifier(validator *jwt.Validator) *JWTVerifier {
	return &JWTVerifier{validator: validator}
}

// Verify validates the token and extracts the verified email
func (v *JWTVerifier) Verify(ctx context.Context, credential string) (domain.VerifiedIdentity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.VerifiedIdentity{}, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}
	if err := ctx.Err(); err != nil {
		return domain.VerifiedIdentity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	claims, err := v.validator.Validate(credential)
	if err != nil {
		return domain.VerifiedIdentity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	return domain.VerifiedIdentity{
		Email:   domain.NormalizeEmail(claims.Email),
		Subject: claims.Subject,
	}, nil
}

// timeoutVerifier bounds how long a verification may take
type timeoutVerifier struct {
	next    IdentityVerifier
	timeout time.Duration
}

// WithTimeout wraps next so that a call not finished within d fails as
// unauthenticated instead of holding the request
func WithTimeout(next IdentityVerifier, d time.Duration) IdentityVerifier {
	return &timeoutVerifier{next: next, timeout: d}
}

type verifyResult struct {
	id  domain.VerifiedIdentity
	err error
}

func (v *timeoutVerifier) Verify(ctx context.Context, credential string) (domain.VerifiedIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	done := make(chan verifyResult, 1)
	go func() {
		id, err := v.next.Verify(ctx, credential)
		done <- verifyResult{id: id, err: err}
	}()

	select {
	case r := <-done:
		return r.id, r.err
	case <-ctx.Done():
		return domain.VerifiedIdentity{}, fmt.Errorf("%w: verification did not complete: %v", domain.ErrUnauthenticated, ctx.Err())
	}
}
