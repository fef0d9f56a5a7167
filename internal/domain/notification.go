package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationConversationStarted = "conversation_started"
	NotificationNewMessage          = "new_message"
)

// Notification — задание для внешнего push-диспетчера, кладётся в очередь как есть
type Notification struct {
	Type      string         `json:"type"`
	UserID    uuid.UUID      `json:"user_id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
