package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"job_messaging/internal/domain"
	"job_messaging/internal/ws"
	apperrors "job_messaging/pkg/errors"
)

type messageFixture struct {
	svc         MessageService
	convRepo    *fakeConversationRepo
	messageRepo *fakeMessageRepo
	broadcaster *recorderBroadcaster
	tracker     *fakeTracker
	notifier    *recorderNotifier
	conv        *domain.Conversation
	employerID  uuid.UUID
	seekerID    uuid.UUID
	outsiderID  uuid.UUID
}

func newMessageFixture() *messageFixture {
	employerID := uuid.New()
	seekerID := uuid.New()

	conv := &domain.Conversation{
		ID:            uuid.New(),
		ApplicationID: uuid.New(),
		EmployerID:    employerID,
		JobSeekerID:   seekerID,
		JobID:         uuid.New(),
		IsActive:      true,
		LastMessageAt: time.Now().Add(-time.Hour),
		CreatedAt:     time.Now().Add(-time.Hour),
	}

	convRepo := newFakeConversationRepo()
	convRepo.convs[conv.ID] = conv

	messageRepo := newFakeMessageRepo()
	broadcaster := &recorderBroadcaster{}
	tracker := newFakeTracker()
	notifier := &recorderNotifier{}

	return &messageFixture{
		svc:         NewMessageService(messageRepo, convRepo, broadcaster, tracker, notifier, testLogger()),
		convRepo:    convRepo,
		messageRepo: messageRepo,
		broadcaster: broadcaster,
		tracker:     tracker,
		notifier:    notifier,
		conv:        conv,
		employerID:  employerID,
		seekerID:    seekerID,
		outsiderID:  uuid.New(),
	}
}

func (f *messageFixture) sendText(t *testing.T, senderID uuid.UUID, content string) *domain.ChatMessage {
	t.Helper()
	msg, err := f.svc.Send(context.Background(), f.conv.ID, senderID, SendMessageInput{Content: content})
	if err != nil {
		t.Fatalf("send %q: %v", content, err)
	}
	return msg
}

func TestSendTextNotifiesAbsentReceiver(t *testing.T) {
	f := newMessageFixture()

	msg := f.sendText(t, f.seekerID, "Hello")

	if msg.MessageType != domain.MessageTypeText || msg.Content == nil || *msg.Content != "Hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.IsRead {
		t.Fatal("message to absent receiver must stay unread")
	}

	// lastMessageAt подтянулся
	stored, _ := f.convRepo.GetByID(context.Background(), f.conv.ID)
	if !stored.LastMessageAt.Equal(msg.CreatedAt) {
		t.Fatal("last_message_at must bump to the message time")
	}

	// new_message в канал, conversation_updated обоим, уведомление работодателю
	if got := f.broadcaster.byEvent(ws.EventNewMessage); len(got) != 1 || got[0].id != f.conv.ID {
		t.Fatalf("expected one new_message to the conversation, got %v", got)
	}
	updated := f.broadcaster.byEvent(ws.EventConversationUpdated)
	if len(updated) != 2 {
		t.Fatalf("expected conversation_updated for both participants, got %d", len(updated))
	}
	if len(f.notifier.newMessages) != 1 || f.notifier.newMessages[0] != f.employerID {
		t.Fatalf("expected notification to employer, got %v", f.notifier.newMessages)
	}

	count, _ := f.svc.UnreadCount(context.Background(), f.employerID, domain.RoleEmployer)
	if count != 1 {
		t.Fatalf("employer unread count = %d, want 1", count)
	}
}

func TestSendToPresentReceiverMarksReadInstead(t *testing.T) {
	f := newMessageFixture()
	f.tracker.JoinConversation(f.employerID, f.conv.ID)

	msg := f.sendText(t, f.seekerID, "Hello")

	if !msg.IsRead {
		t.Fatal("message must be read when receiver is viewing the conversation")
	}
	if len(f.notifier.newMessages) != 0 {
		t.Fatal("no notification when receiver is present")
	}
	read := f.broadcaster.byEvent(ws.EventMessagesRead)
	if len(read) != 1 {
		t.Fatalf("expected one messages_read broadcast, got %d", len(read))
	}
	payload := read[0].payload.(ws.MessagesReadPayload)
	if payload.ReadBy != f.employerID || payload.Count != 1 {
		t.Fatalf("unexpected messages_read payload: %+v", payload)
	}
}

func TestSendPermissionAndState(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	if _, err := f.svc.Send(ctx, f.conv.ID, f.outsiderID, SendMessageInput{Content: "hi"}); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("outsider send: expected permission denied, got %v", err)
	}

	if _, err := f.svc.Send(ctx, uuid.New(), f.seekerID, SendMessageInput{Content: "hi"}); !errors.Is(err, apperrors.ErrConversationNotFound) {
		t.Fatalf("unknown conversation: expected not found, got %v", err)
	}

	_ = f.convRepo.Deactivate(ctx, f.conv.ID)
	if _, err := f.svc.Send(ctx, f.conv.ID, f.seekerID, SendMessageInput{Content: "hi"}); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("inactive conversation: expected invalid state, got %v", err)
	}
}

func TestSendValidation(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()
	att := &domain.Attachment{URL: "https://files.example.com/cv.pdf", Name: "cv.pdf", Size: 1024, MimeType: "application/pdf"}

	cases := []struct {
		name string
		in   SendMessageInput
	}{
		{"empty text", SendMessageInput{Content: "   "}},
		{"text with attachment", SendMessageInput{Content: "hi", Attachment: att}},
		{"image without attachment", SendMessageInput{MessageType: domain.MessageTypeImage}},
		{"file with empty url", SendMessageInput{MessageType: domain.MessageTypeFile, Attachment: &domain.Attachment{}}},
		{"unknown type", SendMessageInput{Content: "hi", MessageType: "video"}},
	}

	for _, tc := range cases {
		if _, err := f.svc.Send(ctx, f.conv.ID, f.seekerID, tc.in); !errors.Is(err, apperrors.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}

	// Валидное вложение проходит
	msg, err := f.svc.Send(ctx, f.conv.ID, f.seekerID, SendMessageInput{MessageType: domain.MessageTypeFile, Attachment: att})
	if err != nil {
		t.Fatalf("file message: %v", err)
	}
	if msg.Attachment == nil || msg.Attachment.URL != att.URL {
		t.Fatalf("attachment lost: %+v", msg)
	}
}

func TestListPreservesSubmissionOrder(t *testing.T) {
	f := newMessageFixture()

	first := f.sendText(t, f.seekerID, "one")
	second := f.sendText(t, f.seekerID, "two")
	third := f.sendText(t, f.seekerID, "three")

	messages, err := f.svc.List(context.Background(), f.conv.ID, f.employerID, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].ID != first.ID || messages[1].ID != second.ID || messages[2].ID != third.ID {
		t.Fatalf("order broken: %d %d %d", messages[0].ID, messages[1].ID, messages[2].ID)
	}

	if _, err := f.svc.List(context.Background(), f.conv.ID, f.outsiderID, 50, 0); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("outsider list: expected permission denied, got %v", err)
	}
}

func TestMarkReadIsIdempotent(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.sendText(t, f.seekerID, "one")
	f.sendText(t, f.seekerID, "two")

	count, err := f.svc.MarkRead(ctx, f.conv.ID, f.employerID)
	if err != nil || count != 2 {
		t.Fatalf("first mark-read: %d, %v, want 2", count, err)
	}

	count, err = f.svc.MarkRead(ctx, f.conv.ID, f.employerID)
	if err != nil || count != 0 {
		t.Fatalf("second mark-read: %d, %v, want 0", count, err)
	}

	// Рассылка только при count > 0
	if got := f.broadcaster.byEvent(ws.EventMessagesRead); len(got) != 1 {
		t.Fatalf("expected one messages_read broadcast, got %d", len(got))
	}

	if _, err := f.svc.MarkRead(ctx, f.conv.ID, f.outsiderID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("outsider mark-read: expected permission denied, got %v", err)
	}
}

func TestEditRules(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	msg := f.sendText(t, f.seekerID, "typo")

	edited, err := f.svc.Edit(ctx, msg.ID, f.seekerID, "fixed")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !edited.IsEdited || edited.Content == nil || *edited.Content != "fixed" || edited.EditedAt == nil {
		t.Fatalf("edit did not apply: %+v", edited)
	}
	if got := f.broadcaster.byEvent(ws.EventMessageEdited); len(got) != 1 {
		t.Fatalf("expected message_edited broadcast, got %d", len(got))
	}

	// Чужое сообщение
	if _, err := f.svc.Edit(ctx, msg.ID, f.employerID, "hack"); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("foreign edit: expected permission denied, got %v", err)
	}

	// Не текст
	att := &domain.Attachment{URL: "https://files.example.com/p.png", Name: "p.png", Size: 10, MimeType: "image/png"}
	img, err := f.svc.Send(ctx, f.conv.ID, f.seekerID, SendMessageInput{MessageType: domain.MessageTypeImage, Attachment: att})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Edit(ctx, img.ID, f.seekerID, "caption"); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("image edit: expected invalid state, got %v", err)
	}

	// Удалённое
	if err := f.svc.Delete(ctx, msg.ID, f.seekerID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Edit(ctx, msg.ID, f.seekerID, "late"); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Fatalf("deleted edit: expected invalid state, got %v", err)
	}
}

func TestDeleteIsSoftAndIdempotent(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	att := &domain.Attachment{URL: "https://files.example.com/cv.pdf", Name: "cv.pdf", Size: 2048, MimeType: "application/pdf"}
	msg, err := f.svc.Send(ctx, f.conv.ID, f.seekerID, SendMessageInput{MessageType: domain.MessageTypeFile, Attachment: att})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Delete(ctx, msg.ID, f.employerID); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("foreign delete: expected permission denied, got %v", err)
	}

	if err := f.svc.Delete(ctx, msg.ID, f.seekerID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	stored, err := f.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		t.Fatal("row must survive soft delete")
	}
	if !stored.IsDeleted || stored.Content != nil || stored.Attachment != nil || stored.DeletedAt == nil {
		t.Fatalf("soft delete incomplete: %+v", stored)
	}

	// Из списка пропало
	messages, err := f.svc.List(ctx, f.conv.ID, f.seekerID, 50, 0)
	if err != nil || len(messages) != 0 {
		t.Fatalf("deleted message must not be listed: %v, %v", messages, err)
	}

	// Повторное удаление — успех без второй рассылки
	if err := f.svc.Delete(ctx, msg.ID, f.seekerID); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if got := f.broadcaster.byEvent(ws.EventMessageDeleted); len(got) != 1 {
		t.Fatalf("expected one message_deleted broadcast, got %d", len(got))
	}
}

// Сценарий из жизни: работодатель написал первым, соискатель ответил,
// работодатель открыл диалог
func TestEmployerSeekerScenario(t *testing.T) {
	f := newMessageFixture()
	ctx := context.Background()

	f.sendText(t, f.employerID, "We liked your application")
	if len(f.notifier.newMessages) != 1 || f.notifier.newMessages[0] != f.seekerID {
		t.Fatalf("seeker must be notified, got %v", f.notifier.newMessages)
	}

	f.sendText(t, f.seekerID, "Thanks, happy to talk")
	count, _ := f.svc.UnreadCount(ctx, f.employerID, domain.RoleEmployer)
	if count != 1 {
		t.Fatalf("employer unread = %d, want 1", count)
	}

	// Работодатель открывает диалог: mark-read как при join_conversation
	read, err := f.svc.MarkRead(ctx, f.conv.ID, f.employerID)
	if err != nil || read != 1 {
		t.Fatalf("mark-read on join: %d, %v, want 1", read, err)
	}
	count, _ = f.svc.UnreadCount(ctx, f.employerID, domain.RoleEmployer)
	if count != 0 {
		t.Fatalf("employer unread after read = %d, want 0", count)
	}
}
