package repository

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"job_messaging/internal/domain"
	"job_messaging/pkg/logger"
)

const notificationQueueKey = "notifications:queue"

// NotificationRepository кладёт задания в очередь для внешнего push-воркера
type NotificationRepository interface {
	Enqueue(ctx context.Context, notification *domain.Notification) error
}

type notificationRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewNotificationRepository(redis *redis.Client, log logger.Logger) NotificationRepository {
	return &notificationRepository{redis: redis, log: log}
}

func (r *notificationRepository) Enqueue(ctx context.Context, notification *domain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		r.log.Error("Failed to marshal notification", "error", err)
		return err
	}

	if err := r.redis.LPush(ctx, notificationQueueKey, payload).Err(); err != nil {
		r.log.Error("Failed to enqueue notification", "error", err, "type", notification.Type)
		return err
	}

	return nil
}
