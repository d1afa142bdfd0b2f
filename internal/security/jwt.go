package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/todosuite/user-service/internal/domain"
)

// Token kinds. Each kind signs with its own secret so a token of one class
// can never verify as another.
type TokenKind string

const (
	TokenActivation TokenKind = "activation"
	TokenAccess     TokenKind = "access"
	TokenRefresh    TokenKind = "refresh"
)

var (
	// ErrTokenExpired means the signature checked out but the embedded
	// expiry is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers bad signatures, wrong kinds and undecodable
	// payloads.
	ErrTokenInvalid = errors.New("token invalid")
)

type activationClaims struct {
	domain.PendingUser
	jwt.RegisteredClaims
}

type identityClaims struct {
	jwt.RegisteredClaims
}

// JWTManager issues and verifies the three token classes. Issuance is a pure
// function of payload, per-kind secret and per-kind lifetime; nothing is
// persisted, so a token cannot be revoked before its expiry.
type JWTManager struct {
	issuer  string
	secrets map[TokenKind][]byte
	ttls    map[TokenKind]time.Duration
	now     func() time.Time
}

func NewJWTManager(issuer, activationSecret, accessSecret, refreshSecret string, activationTTL, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		issuer: issuer,
		secrets: map[TokenKind][]byte{
			TokenActivation: []byte(activationSecret),
			TokenAccess:     []byte(accessSecret),
			TokenRefresh:    []byte(refreshSecret),
		},
		ttls: map[TokenKind]time.Duration{
			TokenActivation: activationTTL,
			TokenAccess:     accessTTL,
			TokenRefresh:    refreshTTL,
		},
		now: time.Now,
	}
}

func (m *JWTManager) TTL(kind TokenKind) time.Duration { return m.ttls[kind] }

// SignActivationToken embeds the whole pending profile; account creation is
// deferred until the token comes back through activation.
func (m *JWTManager) SignActivationToken(pending domain.PendingUser) (string, error) {
	claims := activationClaims{
		PendingUser:      pending,
		RegisteredClaims: m.registered(TokenActivation, pending.Email),
	}
	return m.sign(TokenActivation, claims)
}

func (m *JWTManager) ParseActivationToken(raw string) (*domain.PendingUser, error) {
	var claims activationClaims
	if err := m.parse(TokenActivation, raw, &claims); err != nil {
		return nil, err
	}
	return &claims.PendingUser, nil
}

func (m *JWTManager) SignAccessToken(userID string) (string, error) {
	return m.sign(TokenAccess, identityClaims{RegisteredClaims: m.registered(TokenAccess, userID)})
}

// ParseAccessToken returns the user id carried in the subject claim.
func (m *JWTManager) ParseAccessToken(raw string) (string, error) {
	var claims identityClaims
	if err := m.parse(TokenAccess, raw, &claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

func (m *JWTManager) SignRefreshToken(userID string) (string, error) {
	return m.sign(TokenRefresh, identityClaims{RegisteredClaims: m.registered(TokenRefresh, userID)})
}

func (m *JWTManager) ParseRefreshToken(raw string) (string, error) {
	var claims identityClaims
	if err := m.parse(TokenRefresh, raw, &claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

func (m *JWTManager) registered(kind TokenKind, subject string) jwt.RegisteredClaims {
	now := m.now()
	return jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttls[kind])),
	}
}

func (m *JWTManager) sign(kind TokenKind, claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secrets[kind])
}

func (m *JWTManager) parse(kind TokenKind, raw string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return m.secrets[kind], nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	return nil
}
