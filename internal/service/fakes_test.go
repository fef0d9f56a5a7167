package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"job_messaging/internal/domain"
	"job_messaging/internal/repository"
	apperrors "job_messaging/pkg/errors"
	"job_messaging/pkg/logger"
)

// Фейки над интерфейсами репозиториев, в памяти, без БД

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrNotFound
}

type fakeApplicationRepo struct {
	apps map[uuid.UUID]*domain.JobApplication
}

func (f *fakeApplicationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.JobApplication, error) {
	if a, ok := f.apps[id]; ok {
		return a, nil
	}
	return nil, apperrors.ErrApplicationNotFound
}

type fakeConversationRepo struct {
	convs map[uuid.UUID]*domain.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{convs: make(map[uuid.UUID]*domain.Conversation)}
}

func (f *fakeConversationRepo) Create(_ context.Context, conv *domain.Conversation) error {
	for _, existing := range f.convs {
		if existing.ApplicationID == conv.ApplicationID {
			return repository.ErrDuplicateApplication
		}
	}
	copied := *conv
	f.convs[conv.ID] = &copied
	return nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	if c, ok := f.convs[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, apperrors.ErrConversationNotFound
}

func (f *fakeConversationRepo) GetByApplicationID(_ context.Context, applicationID uuid.UUID) (*domain.Conversation, error) {
	for _, c := range f.convs {
		if c.ApplicationID == applicationID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, apperrors.ErrConversationNotFound
}

func (f *fakeConversationRepo) ListByParticipant(_ context.Context, userID uuid.UUID, role string, limit, offset int) ([]*domain.ConversationPreview, error) {
	var previews []*domain.ConversationPreview
	for _, c := range f.convs {
		if role == domain.RoleEmployer && c.EmployerID != userID {
			continue
		}
		if role == domain.RoleJobSeeker && c.JobSeekerID != userID {
			continue
		}
		copied := *c
		previews = append(previews, &domain.ConversationPreview{Conversation: &copied})
	}
	sort.Slice(previews, func(i, j int) bool {
		return previews[i].Conversation.LastMessageAt.After(previews[j].Conversation.LastMessageAt)
	})
	if offset >= len(previews) {
		return nil, nil
	}
	previews = previews[offset:]
	if len(previews) > limit {
		previews = previews[:limit]
	}
	return previews, nil
}

func (f *fakeConversationRepo) TouchLastMessage(_ context.Context, id uuid.UUID, at time.Time) error {
	if c, ok := f.convs[id]; ok {
		c.LastMessageAt = at
	}
	return nil
}

func (f *fakeConversationRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if c, ok := f.convs[id]; ok {
		c.IsActive = false
	}
	return nil
}

type fakeMessageRepo struct {
	messages []*domain.ChatMessage
	nextID   int64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1}
}

func (f *fakeMessageRepo) Create(_ context.Context, message *domain.ChatMessage) error {
	message.ID = f.nextID
	f.nextID++
	copied := *message
	f.messages = append(f.messages, &copied)
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, messageID int64) (*domain.ChatMessage, error) {
	for _, m := range f.messages {
		if m.ID == messageID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (f *fakeMessageRepo) ListByConversation(_ context.Context, conversationID uuid.UUID, limit, offset int) ([]*domain.ChatMessage, error) {
	var result []*domain.ChatMessage
	// От новых к старым, как в SQL
	for i := len(f.messages) - 1; i >= 0; i-- {
		m := f.messages[i]
		if m.ConversationID == conversationID && !m.IsDeleted {
			copied := *m
			result = append(result, &copied)
		}
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeMessageRepo) MarkRead(_ context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	var count int64
	now := time.Now()
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.IsRead && !m.IsDeleted {
			m.IsRead = true
			m.ReadAt = &now
			count++
		}
	}
	return count, nil
}

func (f *fakeMessageRepo) Update(_ context.Context, message *domain.ChatMessage) error {
	for _, m := range f.messages {
		if m.ID == message.ID {
			now := time.Now()
			m.Content = message.Content
			m.IsEdited = true
			m.EditedAt = &now
			message.IsEdited = true
			message.EditedAt = &now
			return nil
		}
	}
	return apperrors.ErrMessageNotFound
}

func (f *fakeMessageRepo) SoftDelete(_ context.Context, messageID int64) error {
	for _, m := range f.messages {
		if m.ID == messageID {
			now := time.Now()
			m.IsDeleted = true
			m.DeletedAt = &now
			m.Content = nil
			m.Attachment = nil
			return nil
		}
	}
	return apperrors.ErrMessageNotFound
}

func (f *fakeMessageRepo) UnreadCountForUser(_ context.Context, userID uuid.UUID, _ string) (int64, error) {
	var count int64
	for _, m := range f.messages {
		if m.SenderID != userID && !m.IsRead && !m.IsDeleted {
			count++
		}
	}
	return count, nil
}

// recorderBroadcaster запоминает все рассылки для проверок

type broadcastRecord struct {
	target  string // "conversation" или "user"
	id      uuid.UUID
	event   string
	payload any
}

type recorderBroadcaster struct {
	records []broadcastRecord
}

func (b *recorderBroadcaster) ToConversation(conversationID uuid.UUID, event string, payload any) {
	b.records = append(b.records, broadcastRecord{"conversation", conversationID, event, payload})
}

func (b *recorderBroadcaster) ToUser(userID uuid.UUID, event string, payload any) {
	b.records = append(b.records, broadcastRecord{"user", userID, event, payload})
}

func (b *recorderBroadcaster) byEvent(event string) []broadcastRecord {
	var out []broadcastRecord
	for _, r := range b.records {
		if r.event == event {
			out = append(out, r)
		}
	}
	return out
}

// fakeTracker отвечает "в диалоге" только для заранее посаженных пар

type fakeTracker struct {
	viewing map[uuid.UUID]uuid.UUID // userID -> открытый диалог
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{viewing: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakeTracker) Connect(uuid.UUID)                         {}
func (f *fakeTracker) Disconnect(userID uuid.UUID)               { delete(f.viewing, userID) }
func (f *fakeTracker) JoinConversation(userID, convID uuid.UUID) { f.viewing[userID] = convID }
func (f *fakeTracker) LeaveConversation(userID, _ uuid.UUID)     { delete(f.viewing, userID) }

func (f *fakeTracker) IsOnline(userID uuid.UUID) bool {
	_, ok := f.viewing[userID]
	return ok
}

func (f *fakeTracker) InConversation(userID, convID uuid.UUID) bool {
	return f.viewing[userID] == convID
}

// recorderNotifier считает обращения к диспетчеру уведомлений

type recorderNotifier struct {
	started     []*domain.Conversation
	newMessages []uuid.UUID // получатели
}

func (n *recorderNotifier) ConversationStarted(_ context.Context, conv *domain.Conversation, _ string) {
	n.started = append(n.started, conv)
}

func (n *recorderNotifier) NewMessage(_ context.Context, _ *domain.Conversation, _ *domain.ChatMessage, recipientID uuid.UUID) {
	n.newMessages = append(n.newMessages, recipientID)
}

func testLogger() logger.Logger {
	return logger.New("error")
}
