package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoWorkspace  = errors.New("caller has no workspace")
)

const BearerPrefix = "Bearer "

// Claims is what the workspace app signs into access tokens.
type Claims struct {
	jwt.RegisteredClaims
	WorkspaceID string `json:"workspace_id"`
}

// Principal is the authenticated caller of one request.
type Principal struct {
	UserID      string
	WorkspaceID string
}

// Verifier checks HS256 access tokens issued for this engine.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// FromHeader resolves an Authorization header value to a principal.
// ErrMissingToken and ErrInvalidToken map to 401, ErrNoWorkspace to 403.
func (v *Verifier) FromHeader(header string) (Principal, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Principal{}, ErrMissingToken
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return Principal{}, fmt.Errorf("%w: expected Bearer scheme", ErrInvalidToken)
	}
	return v.Verify(strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix)))
}

func (v *Verifier) Verify(token string) (Principal, error) {
	if len(v.secret) == 0 {
		return Principal{}, fmt.Errorf("%w: verifier has no secret", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Principal{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	if strings.TrimSpace(claims.WorkspaceID) == "" {
		return Principal{}, ErrNoWorkspace
	}
	return Principal{UserID: claims.Subject, WorkspaceID: claims.WorkspaceID}, nil
}

// Sign issues a token; used by tests and the local dev token command.
func Sign(secret, issuer, userID, workspaceID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		WorkspaceID: workspaceID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
