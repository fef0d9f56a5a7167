package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"job_messaging/pkg/logger"
)

type Repositories struct {
	User         UserRepository
	Application  ApplicationRepository
	Conversation ConversationRepository
	Message      MessageRepository
	Notification NotificationRepository
	RateLimit    RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db, log),
		Application:  NewApplicationRepository(db, log),
		Conversation: NewConversationRepository(db, log),
		Message:      NewMessageRepository(db, log),
		Notification: NewNotificationRepository(redis, log),
		RateLimit:    NewRateLimitRepository(redis, log),
	}
}
