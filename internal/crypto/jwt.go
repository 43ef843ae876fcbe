package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/geotrace/geotrace-go/internal/apperror"
)

const (
	tokenIssuer   = "geotrace"
	tokenAudience = "geotrace-api"
)

var (
	// ErrInvalidToken is returned for every verification failure so callers
	// cannot tell expiry from a bad signature.
	ErrInvalidToken = apperror.New(apperror.KindUnauthorized, "UNAUTHORIZED", "invalid or expired token")

	// ErrTokenMisconfigured means a token cannot be signed: no secret or no subject.
	ErrTokenMisconfigured = apperror.New(apperror.KindMisconfigured, "TOKEN_MISCONFIGURED", "token signing is not configured")
)

// TokenClaims is the identity carried by a bearer token.
type TokenClaims struct {
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// TokenService signs and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. An empty secret leaves it unconfigured:
// Sign and Verify will fail until a secret is provided at startup.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Configured reports whether a signing secret is present.
func (s *TokenService) Configured() bool {
	return len(s.secret) > 0
}

// Sign creates a signed token for claims.Subject.
func (s *TokenService) Sign(claims TokenClaims) (string, error) {
	if claims.Subject == "" || !s.Configured() {
		return "", ErrTokenMisconfigured
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Email: claims.Email,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", ErrTokenMisconfigured.Wrap(err)
	}
	return signed, nil
}

// Verify parses and validates token, returning its claims.
func (s *TokenService) Verify(token string) (TokenClaims, error) {
	if !s.Configured() || token == "" {
		return TokenClaims{}, ErrInvalidToken
	}

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return TokenClaims{}, ErrInvalidToken
	}

	out := TokenClaims{
		Subject: claims.Subject,
		Email:   claims.Email,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
