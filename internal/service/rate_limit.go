package service

import (
	"context"

	"job_messaging/internal/config"
	"job_messaging/internal/repository"
	"job_messaging/pkg/logger"
)

type RateLimitService interface {
	Allow(ctx context.Context, key string) bool
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	cfg           config.RateLimitConfig
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, cfg config.RateLimitConfig, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		cfg:           cfg,
		log:           log,
	}
}

// Allow — фиксированное окно на ключ. Недоступный redis пропускает
// запрос: лимитер не должен ронять отправку сообщений.
func (s *rateLimitService) Allow(ctx context.Context, key string) bool {
	count, err := s.rateLimitRepo.Increment(ctx, "rate:messages:"+key, s.cfg.Window)
	if err != nil {
		s.log.Warn("Rate limiter unavailable, allowing request", "error", err, "key", key)
		return true
	}

	return count <= int64(s.cfg.MessagesPerWindow)
}
