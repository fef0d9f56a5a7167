package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"job_messaging/internal/domain"
	"job_messaging/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBufferSize = 64
)

// Client — одно живое соединение одного пользователя
type Client struct {
	user *domain.User
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	log  logger.Logger
}

func NewClient(user *domain.User, conn *websocket.Conn, log logger.Logger) *Client {
	return &Client{
		user: user,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
		log:  log,
	}
}

func (c *Client) User() *domain.User {
	return c.user
}

// Send сериализует событие и ставит его в очередь отправки.
// Медленный клиент с переполненным буфером закрывается, не блокируя остальных.
func (c *Client) Send(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.log.Error("Failed to marshal event payload", "error", err, "event", event)
		return
	}

	raw, err := json.Marshal(Event{Type: event, Data: data})
	if err != nil {
		c.log.Error("Failed to marshal event", "error", err, "event", event)
		return
	}

	select {
	case c.send <- raw:
	case <-c.done:
	default:
		c.log.Warn("Send buffer full, dropping connection", "user_id", c.user.ID, "event", event)
		c.Close()
	}
}

func (c *Client) SendError(message string) {
	c.Send(EventError, ErrorPayload{Message: message})
}

func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// ReadPump читает входящие события и отдаёт их в handle до разрыва соединения.
// Ошибки самого события не рвут цикл, только ошибка чтения.
func (c *Client) ReadPump(handle func(*Client, Event)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("Unexpected close", "error", err, "user_id", c.user.ID)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil || event.Type == "" {
			c.SendError("malformed event")
			continue
		}

		handle(c, event)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case raw := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
