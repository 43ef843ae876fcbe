package crypto

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignToken(t *testing.T) {
	token, err := NewTokenService("test-secret", time.Hour).Sign(TokenClaims{Subject: "user-42"})
	if err != nil {
		t.Fatalf("Sign() unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("Sign() returned empty string")
	}
}

func TestSignRequiresSubject(t *testing.T) {
	_, err := NewTokenService("test-secret", time.Hour).Sign(TokenClaims{Email: "a@example.com"})
	if !errors.Is(err, ErrTokenMisconfigured) {
		t.Errorf("Sign() error = %v, want ErrTokenMisconfigured", err)
	}
}

func TestSignRequiresSecret(t *testing.T) {
	svc := NewTokenService("", time.Hour)
	if svc.Configured() {
		t.Fatal("Configured() = true without a secret")
	}

	_, err := svc.Sign(TokenClaims{Subject: "user-42"})
	if !errors.Is(err, ErrTokenMisconfigured) {
		t.Errorf("Sign() error = %v, want ErrTokenMisconfigured", err)
	}
}

func TestVerifyTokenValid(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Sign(TokenClaims{Subject: "user-42", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Sign() unexpected error: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Errorf("Verify() Subject = %q, want %q", claims.Subject, "user-42")
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Verify() Email = %q, want %q", claims.Email, "alice@example.com")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != time.Hour {
		t.Errorf("token lifetime = %v, want %v", got, time.Hour)
	}
}

func TestDefaultLifetimeIsSevenDays(t *testing.T) {
	svc := NewTokenService("test-secret", 0)

	token, err := svc.Sign(TokenClaims{Subject: "user-42"})
	if err != nil {
		t.Fatalf("Sign() unexpected error: %v", err)
	}
	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != 7*24*time.Hour {
		t.Errorf("token lifetime = %v, want 168h", got)
	}
}

func TestVerifyTokenInvalid(t *testing.T) {
	_, err := NewTokenService("test-secret", time.Hour).Verify("not-a-valid-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := NewTokenService("correct-secret", time.Hour).Sign(TokenClaims{Subject: "user-42"})
	if err != nil {
		t.Fatalf("Sign() unexpected error: %v", err)
	}

	_, err = NewTokenService("wrong-secret", time.Hour).Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyWithoutSecret(t *testing.T) {
	token, err := NewTokenService("test-secret", time.Hour).Sign(TokenClaims{Subject: "user-42"})
	if err != nil {
		t.Fatalf("Sign() unexpected error: %v", err)
	}

	_, err = NewTokenService("", time.Hour).Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	svc := NewTokenService("test-secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.Sign(TokenClaims{Subject: "user-42"})
	if err != nil {
		t.Fatalf("Sign() unexpected error: %v", err)
	}

	svc.now = time.Now
	_, err = svc.Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func signRaw(t *testing.T, method jwt.SigningMethod, key any, claims jwtClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() unexpected error: %v", err)
	}
	return token
}

func validRegistered() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "user-42",
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
}

func TestVerifyRejectsForgedClaims(t *testing.T) {
	secret := "test-secret"

	wrongIssuer := validRegistered()
	wrongIssuer.Issuer = "wrong-issuer"

	wrongAudience := validRegistered()
	wrongAudience.Audience = jwt.ClaimStrings{"wrong-audience"}

	noSubject := validRegistered()
	noSubject.Subject = ""

	noExpiry := validRegistered()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"wrong issuer", signRaw(t, jwt.SigningMethodHS256, []byte(secret), jwtClaims{RegisteredClaims: wrongIssuer})},
		{"wrong audience", signRaw(t, jwt.SigningMethodHS256, []byte(secret), jwtClaims{RegisteredClaims: wrongAudience})},
		{"empty subject", signRaw(t, jwt.SigningMethodHS256, []byte(secret), jwtClaims{RegisteredClaims: noSubject})},
		{"missing expiry", signRaw(t, jwt.SigningMethodHS256, []byte(secret), jwtClaims{RegisteredClaims: noExpiry})},
		{"alg none", signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwtClaims{RegisteredClaims: validRegistered()})},
	}

	svc := NewTokenService(secret, time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
