package webhooktoken

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL is the default lifetime for webhook tokens.
	DefaultTokenTTL = 5 * time.Minute
	// DefaultLeeway is clock skew tolerance for token validation.
	DefaultLeeway = 15 * time.Second

	audience = "garasiku-intake"
)

// Signer issues short-lived HS256 tokens for the message gateway. The
// gateway signs each webhook delivery; the subject carries the tenant.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewSigner builds a signer over the shared secret.
func NewSigner(secret, issuer string) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("webhook secret required")
	}
	if strings.TrimSpace(issuer) == "" {
		return nil, errors.New("webhook issuer required")
	}
	return &Signer{secret: []byte(secret), issuer: issuer, ttl: DefaultTokenTTL}, nil
}

// Sign issues a token for the given tenant.
func (s *Signer) Sign(tenantID string) (string, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return "", errors.New("tenant id required")
	}
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   tenantID,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verifier validates webhook tokens and extracts the tenant subject.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier builds a verifier over the shared secret.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("webhook secret required")
	}
	return &Verifier{secret: []byte(secret), leeway: DefaultLeeway}, nil
}

// VerifyTenant validates the token and returns its tenant subject.
func (v *Verifier) VerifyTenant(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("token required")
	}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unsupported signing method")
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return "", err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("subject required")
	}
	return claims.Subject, nil
}

// BearerToken extracts a bearer token from request header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
