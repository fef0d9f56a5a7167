package service

import "github.com/google/uuid"

// Broadcaster — то, что умеет делать realtime-слой для бизнес-логики.
// Сервисы шлют события сами, поэтому REST и WebSocket сходятся
// к одинаковому состоянию и одинаковым рассылкам.
type Broadcaster interface {
	ToConversation(conversationID uuid.UUID, event string, payload any)
	ToUser(userID uuid.UUID, event string, payload any)
}
