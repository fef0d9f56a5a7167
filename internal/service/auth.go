package service

import (
	"context"

	"job_messaging/internal/config"
	"job_messaging/internal/domain"
	"job_messaging/internal/repository"
	apperrors "job_messaging/pkg/errors"
	"job_messaging/pkg/jwt"
	"job_messaging/pkg/logger"
)

// AuthService проверяет bearer-токены, выпущенные внешним auth-сервисом.
// Регистрация, логин и refresh живут там же, здесь только валидация.
type AuthService interface {
	ValidateToken(ctx context.Context, tokenString string) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtCfg   config.JWTConfig
	log      logger.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtCfg config.JWTConfig, log logger.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtCfg:   jwtCfg,
		log:      log,
	}
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := jwt.ParseAccessToken(tokenString, s.jwtCfg.AccessSecret)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	if !user.IsActive {
		return nil, apperrors.ErrUnauthorized
	}

	return user, nil
}
