package service

import (
	"time"

	"github.com/todosuite/user-service/internal/domain"
	"github.com/todosuite/user-service/internal/security"
)

// TokenService fronts the JWT manager for the workflow layer. All three token
// kinds are stateless; nothing is persisted and nothing can be revoked before
// its expiry.
type TokenService struct {
	jwtMgr *security.JWTManager
}

func NewTokenService(jwtMgr *security.JWTManager) *TokenService {
	return &TokenService{jwtMgr: jwtMgr}
}

// IssueActivation embeds the whole candidate profile so account creation can
// wait until the email round-trip proves the address reachable.
func (s *TokenService) IssueActivation(pending domain.PendingUser) (string, error) {
	return s.jwtMgr.SignActivationToken(pending)
}

func (s *TokenService) ParseActivation(raw string) (*domain.PendingUser, error) {
	return s.jwtMgr.ParseActivationToken(raw)
}

func (s *TokenService) IssueAccess(userID string) (string, error) {
	return s.jwtMgr.SignAccessToken(userID)
}

func (s *TokenService) ParseAccess(raw string) (string, error) {
	return s.jwtMgr.ParseAccessToken(raw)
}

func (s *TokenService) IssueRefresh(userID string) (string, error) {
	return s.jwtMgr.SignRefreshToken(userID)
}

func (s *TokenService) ParseRefresh(raw string) (string, error) {
	return s.jwtMgr.ParseRefreshToken(raw)
}

func (s *TokenService) RefreshTTL() time.Duration {
	return s.jwtMgr.TTL(security.TokenRefresh)
}
