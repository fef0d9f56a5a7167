package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"job_messaging/internal/domain"
	"job_messaging/internal/presence"
	"job_messaging/internal/repository"
	"job_messaging/internal/ws"
	apperrors "job_messaging/pkg/errors"
	"job_messaging/pkg/logger"
)

const maxContentLength = 4000

type SendMessageInput struct {
	Content     string
	MessageType string
	Attachment  *domain.Attachment
}

type MessageService interface {
	Send(ctx context.Context, conversationID, senderID uuid.UUID, in SendMessageInput) (*domain.ChatMessage, error)
	List(ctx context.Context, conversationID, requesterID uuid.UUID, limit, offset int) ([]*domain.ChatMessage, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
	Edit(ctx context.Context, messageID int64, requesterID uuid.UUID, content string) (*domain.ChatMessage, error)
	Delete(ctx context.Context, messageID int64, requesterID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID, role string) (int64, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	convRepo    repository.ConversationRepository
	broadcaster Broadcaster
	tracker     presence.Tracker
	notifier    NotificationService
	log         logger.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	broadcaster Broadcaster,
	tracker presence.Tracker,
	notifier NotificationService,
	log logger.Logger,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		convRepo:    convRepo,
		broadcaster: broadcaster,
		tracker:     tracker,
		notifier:    notifier,
		log:         log,
	}
}

func (in *SendMessageInput) validate() (*domain.ChatMessage, error) {
	messageType := in.MessageType
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	if !domain.ValidMessageType(messageType) {
		return nil, apperrors.ErrValidation
	}

	content := strings.TrimSpace(in.Content)
	if len(content) > maxContentLength {
		return nil, apperrors.ErrValidation
	}

	message := &domain.ChatMessage{MessageType: messageType}

	if messageType == domain.MessageTypeText {
		// Текст обязателен, вложение запрещено
		if content == "" || in.Attachment != nil {
			return nil, apperrors.ErrValidation
		}
		message.Content = &content
		return message, nil
	}

	// image/file: вложение обязательно, подпись опциональна
	if in.Attachment == nil || in.Attachment.URL == "" {
		return nil, apperrors.ErrValidation
	}
	message.Attachment = in.Attachment
	if content != "" {
		message.Content = &content
	}

	return message, nil
}

// Send сохраняет сообщение и раздаёт последствия: new_message в канал
// диалога, conversation_updated обоим участникам, а дальше — либо
// мгновенная квитанция о прочтении (получатель сидит в диалоге),
// либо push-уведомление отсутствующему.
func (s *messageService) Send(ctx context.Context, conversationID, senderID uuid.UUID, in SendMessageInput) (*domain.ChatMessage, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(senderID) {
		return nil, apperrors.ErrPermissionDenied
	}
	if !conv.IsActive {
		return nil, apperrors.ErrInvalidState
	}

	message, err := in.validate()
	if err != nil {
		return nil, err
	}
	message.ConversationID = conversationID
	message.SenderID = senderID
	message.CreatedAt = time.Now()

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	if err := s.convRepo.TouchLastMessage(ctx, conversationID, message.CreatedAt); err != nil {
		s.log.Warn("Failed to bump last_message_at", "error", err, "conversation_id", conversationID)
	}

	s.broadcaster.ToConversation(conversationID, ws.EventNewMessage, message)

	summary := ws.ConversationUpdatedPayload{ConversationID: conversationID, LastMessage: message, IsActive: conv.IsActive}
	s.broadcaster.ToUser(conv.EmployerID, ws.EventConversationUpdated, summary)
	s.broadcaster.ToUser(conv.JobSeekerID, ws.EventConversationUpdated, summary)

	receiver := conv.OtherParticipant(senderID)
	if s.tracker.InConversation(receiver, conversationID) {
		if _, err := s.markReadAndBroadcast(ctx, conversationID, receiver); err == nil {
			now := time.Now()
			message.IsRead = true
			message.ReadAt = &now
		}
	} else {
		s.notifier.NewMessage(ctx, conv, message, receiver)
	}

	return message, nil
}

// List отдаёт хронологическую страницу без удалённых сообщений
func (s *messageService) List(ctx context.Context, conversationID, requesterID uuid.UUID, limit, offset int) ([]*domain.ChatMessage, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(requesterID) {
		return nil, apperrors.ErrPermissionDenied
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}

	// Хранилище отдаёт от новых к старым, клиенту удобнее наоборот
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkRead помечает чужие непрочитанные; повторный вызов безвреден и вернёт 0
func (s *messageService) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !conv.IsParticipant(readerID) {
		return 0, apperrors.ErrPermissionDenied
	}

	return s.markReadAndBroadcast(ctx, conversationID, readerID)
}

func (s *messageService) markReadAndBroadcast(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	count, err := s.messageRepo.MarkRead(ctx, conversationID, readerID)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.broadcaster.ToConversation(conversationID, ws.EventMessagesRead, ws.MessagesReadPayload{
			ConversationID: conversationID,
			ReadBy:         readerID,
			Count:          count,
		})
	}

	return count, nil
}

// Edit разрешён только автору и только для живого текстового сообщения
func (s *messageService) Edit(ctx context.Context, messageID int64, requesterID uuid.UUID, content string) (*domain.ChatMessage, error) {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}

	if message.SenderID != requesterID {
		return nil, apperrors.ErrPermissionDenied
	}
	if message.IsDeleted || message.MessageType != domain.MessageTypeText {
		return nil, apperrors.ErrInvalidState
	}

	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxContentLength {
		return nil, apperrors.ErrValidation
	}

	message.Content = &content
	if err := s.messageRepo.Update(ctx, message); err != nil {
		return nil, err
	}

	s.broadcaster.ToConversation(message.ConversationID, ws.EventMessageEdited, message)

	return message, nil
}

// Delete — мягкое удаление, идемпотентное: повторный вызов автора просто успешен
func (s *messageService) Delete(ctx context.Context, messageID int64, requesterID uuid.UUID) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}

	if message.SenderID != requesterID {
		return apperrors.ErrPermissionDenied
	}
	if message.IsDeleted {
		return nil
	}

	if err := s.messageRepo.SoftDelete(ctx, messageID); err != nil {
		return err
	}

	s.broadcaster.ToConversation(message.ConversationID, ws.EventMessageDeleted, ws.MessageDeletedPayload{
		MessageID:      messageID,
		ConversationID: message.ConversationID,
	})

	return nil
}

func (s *messageService) UnreadCount(ctx context.Context, userID uuid.UUID, role string) (int64, error) {
	return s.messageRepo.UnreadCountForUser(ctx, userID, role)
}
