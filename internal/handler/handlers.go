package handler

import (
	"job_messaging/internal/config"
	"job_messaging/internal/service"
	"job_messaging/internal/ws"
	"job_messaging/pkg/logger"
)

type Handlers struct {
	Health       *HealthHandler
	Conversation *ConversationHandler
	Message      *MessageHandler
	WebSocket    *WebSocketHandler
}

func NewHandlers(services *service.Services, hub *ws.Hub, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(cfg),
		Conversation: NewConversationHandler(services.Conversation, log),
		Message:      NewMessageHandler(services.Message, log),
		WebSocket:    NewWebSocketHandler(hub, services.Auth, services.Conversation, services.Message, log),
	}
}
