package presence

import (
	"sync"

	"github.com/google/uuid"
)

// Tracker — эфемерный реестр присутствия: кто подключён и какой диалог
// сейчас открыт у каждого. Состояние живёт только в памяти процесса и
// полностью перестраивается после рестарта; на durable-данные не влияет.
// Интерфейс оставлен ради варианта с внешним хранилищем при масштабировании.
type Tracker interface {
	Connect(userID uuid.UUID)
	Disconnect(userID uuid.UUID)
	JoinConversation(userID, conversationID uuid.UUID)
	LeaveConversation(userID, conversationID uuid.UUID)
	IsOnline(userID uuid.UUID) bool
	InConversation(userID, conversationID uuid.UUID) bool
}

type memoryTracker struct {
	mu      sync.RWMutex
	online  map[uuid.UUID]struct{}
	viewers map[uuid.UUID]map[uuid.UUID]struct{} // conversationID -> набор зрителей
}

func NewTracker() Tracker {
	return &memoryTracker{
		online:  make(map[uuid.UUID]struct{}),
		viewers: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (t *memoryTracker) Connect(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.online[userID] = struct{}{}
}

// Disconnect убирает пользователя отовсюду, включая все наборы зрителей
func (t *memoryTracker) Disconnect(userID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.online, userID)
	for convID, set := range t.viewers {
		delete(set, userID)
		if len(set) == 0 {
			delete(t.viewers, convID)
		}
	}
}

func (t *memoryTracker) JoinConversation(userID, conversationID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.viewers[conversationID] == nil {
		t.viewers[conversationID] = make(map[uuid.UUID]struct{})
	}
	t.viewers[conversationID][userID] = struct{}{}
}

// LeaveConversation удаляет зрителя; пустой набор выбрасывается целиком
func (t *memoryTracker) LeaveConversation(userID, conversationID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if set := t.viewers[conversationID]; set != nil {
		delete(set, userID)
		if len(set) == 0 {
			delete(t.viewers, conversationID)
		}
	}
}

func (t *memoryTracker) IsOnline(userID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[userID]
	return ok
}

func (t *memoryTracker) InConversation(userID, conversationID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.viewers[conversationID][userID]
	return ok
}
