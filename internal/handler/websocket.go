package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"job_messaging/internal/service"
	"job_messaging/internal/ws"
	"job_messaging/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

type WebSocketHandler struct {
	hub                 *ws.Hub
	authService         service.AuthService
	conversationService service.ConversationService
	messageService      service.MessageService
	log                 logger.Logger
}

func NewWebSocketHandler(
	hub *ws.Hub,
	authService service.AuthService,
	conversationService service.ConversationService,
	messageService service.MessageService,
	log logger.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:                 hub,
		authService:         authService,
		conversationService: conversationService,
		messageService:      messageService,
		log:                 log,
	}
}

// HandleChat: токен проверяется до upgrade, тем же способом что и REST.
// Без валидного токена ни одно событие не обрабатывается.
func (h *WebSocketHandler) HandleChat(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		// Браузерный WebSocket не умеет ставить заголовки, но не-браузерные клиенты умеют
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}

	user, err := h.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := ws.NewClient(user, conn, h.log)
	h.hub.Register(client)
	h.log.Info("WebSocket connected", "user_id", user.ID, "role", user.Role)

	go client.WritePump()
	client.ReadPump(h.route)

	h.hub.Unregister(client)
	client.Close()
	h.log.Info("WebSocket disconnected", "user_id", user.ID)
}

// route разбирает событие и зовёт бизнес-логику. Любая ошибка уходит
// error-событием только инициатору, соединение и остальные не страдают.
func (h *WebSocketHandler) route(client *ws.Client, event ws.Event) {
	// Принятая мутация доводится до конца даже при разрыве соединения
	ctx := context.Background()
	userID := client.User().ID

	switch event.Type {
	case ws.EventJoinConversation:
		var payload ws.ConversationPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			client.SendError("malformed payload")
			return
		}
		// Членство проверяется до регистрации в канале
		if _, err := h.conversationService.GetByID(ctx, payload.ConversationID, userID); err != nil {
			client.SendError(err.Error())
			return
		}
		h.hub.Join(payload.ConversationID, client)
		// Открытие диалога считается прочтением
		if _, err := h.messageService.MarkRead(ctx, payload.ConversationID, userID); err != nil {
			client.SendError(err.Error())
		}

	case ws.EventLeaveConversation:
		var payload ws.ConversationPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			client.SendError("malformed payload")
			return
		}
		h.hub.Leave(payload.ConversationID, client)

	case ws.EventTypingStart, ws.EventTypingStop:
		var payload ws.ConversationPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			client.SendError("malformed payload")
			return
		}
		// Печатать "в чужом" диалоге нельзя, членство проверяется как при join
		if _, err := h.conversationService.GetByID(ctx, payload.ConversationID, userID); err != nil {
			client.SendError(err.Error())
			return
		}
		// Эфемерное событие: не сохраняется, уходит только остальным в канале
		h.hub.ToConversationExcept(payload.ConversationID, client, ws.EventUserTyping, ws.UserTypingPayload{
			ConversationID: payload.ConversationID,
			UserID:         userID,
			IsTyping:       event.Type == ws.EventTypingStart,
		})

	case ws.EventSendMessage:
		var payload ws.SendMessagePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			client.SendError("malformed payload")
			return
		}
		_, err := h.messageService.Send(ctx, payload.ConversationID, userID, service.SendMessageInput{
			Content:     payload.Content,
			MessageType: payload.MessageType,
			Attachment:  payload.Attachment,
		})
		if err != nil {
			client.SendError(err.Error())
		}

	case ws.EventEditMessage:
		var payload ws.EditMessagePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			client.SendError("malformed payload")
			return
		}
		if _, err := h.messageService.Edit(ctx, payload.MessageID, userID, payload.Content); err != nil {
			client.SendError(err.Error())
		}

	case ws.EventDeleteMessage:
		var payload ws.DeleteMessagePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			client.SendError("malformed payload")
			return
		}
		if err := h.messageService.Delete(ctx, payload.MessageID, userID); err != nil {
			client.SendError(err.Error())
		}

	case ws.EventMarkRead:
		var payload ws.ConversationPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			client.SendError("malformed payload")
			return
		}
		if _, err := h.messageService.MarkRead(ctx, payload.ConversationID, userID); err != nil {
			client.SendError(err.Error())
		}

	default:
		client.SendError("unknown event type: " + event.Type)
	}
}
