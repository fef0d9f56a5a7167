package ws

import (
	"sync"

	"github.com/google/uuid"

	"job_messaging/internal/presence"
	"job_messaging/pkg/logger"
)

// Hub владеет всеми живыми соединениями процесса: персональный канал на
// пользователя и канал на каждый диалог. Вся presence-бухгалтерия
// происходит только отсюда.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
	rooms   map[uuid.UUID]map[*Client]struct{}
	tracker presence.Tracker
	log     logger.Logger
}

func NewHub(tracker presence.Tracker, log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		rooms:   make(map[uuid.UUID]map[*Client]struct{}),
		tracker: tracker,
		log:     log,
	}
}

// Register регистрирует соединение пользователя. Активное соединение одно:
// новое вытесняет и закрывает предыдущее, чтобы presence не врал.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	old := h.clients[c.user.ID]
	h.clients[c.user.ID] = c
	var abandoned []uuid.UUID
	if old != nil {
		abandoned = h.detachLocked(old)
	}
	h.mu.Unlock()

	if old != nil {
		// Presence наследуется не автоматически: новое соединение само
		// заявит join, а следы старого подчищаем здесь.
		for _, convID := range abandoned {
			h.tracker.LeaveConversation(c.user.ID, convID)
		}
		old.Close()
		h.log.Info("Replaced existing connection", "user_id", c.user.ID)
	}

	h.tracker.Connect(c.user.ID)
}

// Unregister снимает соединение и чистит presence. Вытесненное соединение
// не трогает состояние своего сменщика.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	current := h.clients[c.user.ID] == c
	if current {
		delete(h.clients, c.user.ID)
		h.detachLocked(c)
	}
	h.mu.Unlock()

	if current {
		h.tracker.Disconnect(c.user.ID)
	}
}

// detachLocked убирает клиента из всех каналов диалогов и возвращает их
// идентификаторы, вызывается под mu
func (h *Hub) detachLocked(c *Client) []uuid.UUID {
	var left []uuid.UUID
	for convID, room := range h.rooms {
		if _, ok := room[c]; !ok {
			continue
		}
		delete(room, c)
		left = append(left, convID)
		if len(room) == 0 {
			delete(h.rooms, convID)
		}
	}
	return left
}

func (h *Hub) Join(conversationID uuid.UUID, c *Client) {
	h.mu.Lock()
	if h.rooms[conversationID] == nil {
		h.rooms[conversationID] = make(map[*Client]struct{})
	}
	h.rooms[conversationID][c] = struct{}{}
	h.mu.Unlock()

	h.tracker.JoinConversation(c.user.ID, conversationID)
}

func (h *Hub) Leave(conversationID uuid.UUID, c *Client) {
	h.mu.Lock()
	if room := h.rooms[conversationID]; room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	h.mu.Unlock()

	h.tracker.LeaveConversation(c.user.ID, conversationID)
}

// ToConversation рассылает событие всем соединениям в канале диалога
func (h *Hub) ToConversation(conversationID uuid.UUID, event string, payload any) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[conversationID]))
	for c := range h.rooms[conversationID] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.Send(event, payload)
	}
}

// ToConversationExcept — то же, но без отправителя (typing-события)
func (h *Hub) ToConversationExcept(conversationID uuid.UUID, except *Client, event string, payload any) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[conversationID]))
	for c := range h.rooms[conversationID] {
		if c != except {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.Send(event, payload)
	}
}

// ToUser доставляет событие в персональный канал, офлайн-пользователь молча пропускается
func (h *Hub) ToUser(userID uuid.UUID, event string, payload any) {
	h.mu.RLock()
	c := h.clients[userID]
	h.mu.RUnlock()

	if c != nil {
		c.Send(event, payload)
	}
}
