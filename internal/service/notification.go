package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"job_messaging/internal/domain"
	"job_messaging/internal/repository"
	"job_messaging/pkg/logger"
)

// NotificationService — адаптер внешнего push-диспетчера. Доставка
// best-effort: любая ошибка логируется и глотается, отправка сообщения
// не должна падать из-за недоступных уведомлений.
type NotificationService interface {
	ConversationStarted(ctx context.Context, conv *domain.Conversation, jobTitle string)
	NewMessage(ctx context.Context, conv *domain.Conversation, message *domain.ChatMessage, recipientID uuid.UUID)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	log              logger.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, log logger.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		log:              log,
	}
}

func (s *notificationService) ConversationStarted(ctx context.Context, conv *domain.Conversation, jobTitle string) {
	s.enqueue(ctx, &domain.Notification{
		Type:   domain.NotificationConversationStarted,
		UserID: conv.JobSeekerID,
		Title:  "An employer contacted you",
		Body:   "The employer started a conversation about your application for " + jobTitle,
		Data: map[string]any{
			"conversation_id": conv.ID,
			"application_id":  conv.ApplicationID,
		},
		CreatedAt: time.Now(),
	})
}

// NewMessage подбирает текст по роли отправителя и типу сообщения
func (s *notificationService) NewMessage(ctx context.Context, conv *domain.Conversation, message *domain.ChatMessage, recipientID uuid.UUID) {
	var title, body string
	if message.SenderID == conv.EmployerID {
		title = "New message from the employer"
		body = "The employer sent you a message"
	} else {
		title = "New message from a candidate"
		body = "The candidate replied to you"
	}

	switch message.MessageType {
	case domain.MessageTypeImage:
		body = "You received an image"
	case domain.MessageTypeFile:
		body = "You received a file"
	default:
		if message.Content != nil {
			body = *message.Content
		}
	}

	s.enqueue(ctx, &domain.Notification{
		Type:   domain.NotificationNewMessage,
		UserID: recipientID,
		Title:  title,
		Body:   body,
		Data: map[string]any{
			"conversation_id": conv.ID,
			"message_id":      message.ID,
		},
		CreatedAt: time.Now(),
	})
}

func (s *notificationService) enqueue(ctx context.Context, notification *domain.Notification) {
	if err := s.notificationRepo.Enqueue(ctx, notification); err != nil {
		s.log.Warn("Notification delivery failed",
			"error", err, "type", notification.Type, "user_id", notification.UserID)
	}
}
