package auth

import (
	"errors"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidState is returned for a missing, malformed or expired OAuth
// state token.
var ErrInvalidState = errors.New("invalid oauth state")

const googleAuthEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"

// StateService signs and validates the OAuth state parameter. Login itself
// is delegated to Google; this only protects the callback against forged
// redirects.
type StateService struct {
	secret []byte
	ttl    time.Duration
}

// NewStateService creates a state service. Tokens expire after ttlMinutes.
func NewStateService(secret string, ttlMinutes int) *StateService {
	if ttlMinutes <= 0 {
		ttlMinutes = 10
	}
	return &StateService{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMinutes) * time.Minute,
	}
}

// Generate creates a fresh short-lived state token.
func (s *StateService) Generate() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate checks a state token's signature and expiry.
func (s *StateService) Validate(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidState
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidState
	}
	return nil
}

// LoginURL builds the Google authorization URL for the given client and
// redirect target, carrying the signed state.
func LoginURL(clientID, redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	return googleAuthEndpoint + "?" + q.Encode()
}
