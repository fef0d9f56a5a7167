package service

import (
	"job_messaging/internal/config"
	"job_messaging/internal/presence"
	"job_messaging/internal/repository"
	"job_messaging/pkg/logger"
)

type Services struct {
	Auth         AuthService
	Conversation ConversationService
	Message      MessageService
	Notification NotificationService
	RateLimit    RateLimitService
}

func NewServices(
	repos *repository.Repositories,
	cfg *config.Config,
	broadcaster Broadcaster,
	tracker presence.Tracker,
	log logger.Logger,
) *Services {
	notifier := NewNotificationService(repos.Notification, log)

	return &Services{
		Auth:         NewAuthService(repos.User, cfg.JWT, log),
		Conversation: NewConversationService(repos.Conversation, repos.Application, repos.User, notifier, broadcaster, log),
		Message:      NewMessageService(repos.Message, repos.Conversation, broadcaster, tracker, notifier, log),
		Notification: notifier,
		RateLimit:    NewRateLimitService(repos.RateLimit, cfg.RateLimit, log),
	}
}
