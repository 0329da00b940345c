package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired    = errors.New("token has expired")
	ErrTokenInvalid    = errors.New("token is invalid")
	ErrEmailMissing    = errors.New("token has no email claim")
	ErrEmailUnverified = errors.New("token email is not verified")
)

// Claims represents the identity token claims
type Claims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Validator checks signature, expiry, issuer and audience of identity tokens
type Validator struct {
	key    interface{}
	parser *jwt.Parser
}

// NewHMACValidator creates a validator for HS256 tokens signed with secret
func NewHMACValidator(secret, issuer, audience string) *Validator {
	return &Validator{
		key:    []byte(secret),
		parser: newParser(jwt.SigningMethodHS256.Alg(), issuer, audience),
	}
}

// NewRSAValidator creates a validator for RS256 tokens from a PEM public key
func NewRSAValidator(publicKeyPEM []byte, issuer, audience string) (*Validator, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &Validator{
		key:    key,
		parser: newParser(jwt.SigningMethodRS256.Alg(), issuer, audience),
	}, nil
}

func newParser(alg, issuer, audience string) *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return jwt.NewParser(opts...)
}

// Validate validates a token and returns its claims. A token without an
// email, or with email_verified=false, is rejected.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Email == "" {
		return nil, ErrEmailMissing
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, ErrEmailUnverified
	}
	return claims, nil
}

// TokenInput describes a token to sign (dev tooling and tests)
type TokenInput struct {
	Email         string
	EmailVerified *bool
	Subject       string
	Issuer        string
	Audience      string
	TTL           time.Duration
}

// GenerateHS256 signs an identity token with a shared secret
func GenerateHS256(in TokenInput, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, newClaims(in)).SignedString([]byte(secret))
}

// GenerateRS256 signs an identity token with a private key
func GenerateRS256(in TokenInput, key *rsa.PrivateKey) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodRS256, newClaims(in)).SignedString(key)
}

func newClaims(in TokenInput) Claims {
	now := time.Now()
	claims := Claims{
		Email:         in.Email,
		EmailVerified: in.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(in.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    in.Issuer,
			Subject:   in.Subject,
		},
	}
	if in.Audience != "" {
		claims.Audience = jwt.ClaimStrings{in.Audience}
	}
	return claims
}
