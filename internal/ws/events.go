package ws

import (
	"encoding/json"

	"github.com/google/uuid"

	"job_messaging/internal/domain"
)

// Входящие события от клиента
const (
	EventSendMessage       = "send_message"
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
	EventEditMessage       = "edit_message"
	EventDeleteMessage     = "delete_message"
	EventMarkRead          = "mark_read"
)

// Исходящие события клиенту
const (
	EventNewMessage          = "new_message"
	EventMessageEdited       = "message_edited"
	EventMessageDeleted      = "message_deleted"
	EventMessagesRead        = "messages_read"
	EventConversationUpdated = "conversation_updated"
	EventUserTyping          = "user_typing"
	EventError               = "error"
)

// Event — общий конверт обоих направлений
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ConversationPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

type SendMessagePayload struct {
	ConversationID uuid.UUID          `json:"conversation_id"`
	Content        string             `json:"content"`
	MessageType    string             `json:"message_type"`
	Attachment     *domain.Attachment `json:"attachment,omitempty"`
}

type EditMessagePayload struct {
	MessageID int64  `json:"message_id"`
	Content   string `json:"content"`
}

type DeleteMessagePayload struct {
	MessageID int64 `json:"message_id"`
}

type UserTypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	IsTyping       bool      `json:"is_typing"`
}

type MessagesReadPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	ReadBy         uuid.UUID `json:"read_by"`
	Count          int64     `json:"count"`
}

type MessageDeletedPayload struct {
	MessageID      int64     `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
}

type ConversationUpdatedPayload struct {
	ConversationID uuid.UUID           `json:"conversation_id"`
	LastMessage    *domain.ChatMessage `json:"last_message,omitempty"`
	IsActive       bool                `json:"is_active"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
