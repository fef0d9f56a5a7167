package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation жёстко привязан к одному отклику (application): максимум один диалог на отклик.
// Диалоги никогда не удаляются, только деактивируются.
type Conversation struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"application_id"`
	EmployerID    uuid.UUID `json:"employer_id"`
	JobSeekerID   uuid.UUID `json:"job_seeker_id"`
	JobID         uuid.UUID `json:"job_id"`
	IsActive      bool      `json:"is_active"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsParticipant проверяет членство в диалоге
func (c *Conversation) IsParticipant(userID uuid.UUID) bool {
	return c.EmployerID == userID || c.JobSeekerID == userID
}

// OtherParticipant возвращает собеседника для данного участника
func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.EmployerID == userID {
		return c.JobSeekerID
	}
	return c.EmployerID
}

// ConversationPreview — элемент списка диалогов с аннотацией под конкретного запрашивающего
type ConversationPreview struct {
	Conversation *Conversation `json:"conversation"`
	LastMessage  *ChatMessage  `json:"last_message,omitempty"`
	UnreadCount  int           `json:"unread_count"`
}
