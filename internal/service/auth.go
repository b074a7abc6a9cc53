package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"yochat/internal/config"
	"yochat/internal/model"
	"yochat/internal/repository"
)

// AuthService issues access tokens and rotates refresh tokens with reuse detection.
type AuthService struct {
	refreshTokenRepo repository.RefreshTokenRepository
	config           *config.Config
	now              func() time.Time
}

func NewAuthService(refreshTokenRepo repository.RefreshTokenRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		refreshTokenRepo: refreshTokenRepo,
		config:           cfg,
		now:              time.Now,
	}
}

// GenerateTokenPair issues a new access token and persists a refresh token.
func (s *AuthService) GenerateTokenPair(ctx context.Context, userID int64, userAgent string) (*model.TokenPair, error) {
	pair, _, err := s.issue(ctx, userID, userAgent)
	return pair, err
}

func (s *AuthService) issue(ctx context.Context, userID int64, userAgent string) (*model.TokenPair, *model.RefreshToken, error) {
	accessToken, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	raw := uuid.New().String()
	stored := &model.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(raw),
		ExpiresAt: s.now().Add(time.Duration(s.config.RefreshTokenMaxAge) * time.Second),
	}
	if userAgent != "" {
		stored.UserAgent = &userAgent
	}

	if err := s.refreshTokenRepo.Create(ctx, stored); err != nil {
		return nil, nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: raw,
		ExpiresIn:    s.config.AccessTokenMaxAge,
	}, stored, nil
}

// RefreshTokens exchanges a refresh token for a new pair. Presenting a revoked token
// revokes every token the user holds.
func (s *AuthService) RefreshTokens(ctx context.Context, raw, userAgent string) (*model.TokenPair, int64, error) {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, hashToken(raw))
	if err != nil {
		return nil, 0, model.ErrRefreshTokenNotFound
	}

	now := s.now()
	if !token.Usable(now) {
		if token.RevokedAt != nil {
			if err := s.refreshTokenRepo.RevokeAllForUser(ctx, token.UserID); err != nil {
				log.Printf("[Auth] Failed to revoke token family for user=%d: %v", token.UserID, err)
			}
			log.Printf("[Auth] Refresh token reuse detected for user=%d", token.UserID)
			return nil, 0, model.ErrRefreshTokenReused
		}
		return nil, 0, model.ErrRefreshTokenExpired
	}

	pair, next, err := s.issue(ctx, token.UserID, userAgent)
	if err != nil {
		return nil, 0, err
	}

	if err := s.refreshTokenRepo.Revoke(ctx, token.ID, &next.ID); err != nil {
		log.Printf("[Auth] Failed to revoke rotated token id=%s: %v", token.ID, err)
	}

	return pair, token.UserID, nil
}

// RevokeRefreshToken revokes a single token. Unknown tokens are not an error.
func (s *AuthService) RevokeRefreshToken(ctx context.Context, raw string) error {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, hashToken(raw))
	if errors.Is(err, model.ErrRefreshTokenNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.refreshTokenRepo.Revoke(ctx, token.ID, nil)
}

func (s *AuthService) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	return s.refreshTokenRepo.RevokeAllForUser(ctx, userID)
}

func (s *AuthService) generateAccessToken(userID int64) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
