package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"inventory-hub/internal/models"
	"inventory-hub/internal/util"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// ErrSlowSubscriber is returned when a subscriber's send buffer is full;
// the hub treats it as a disconnect.
var ErrSlowSubscriber = errors.New("subscriber send buffer full")

// SnapshotFunc builds the full-state payload for INITIAL_DATA
type SnapshotFunc func(ctx context.Context) (*models.Snapshot, error)

// Client is one websocket subscriber. Outbound messages go through a
// buffered channel drained by writePump; inbound frames are limited to
// SUBSCRIBE (snapshot request) and CHAT_MESSAGE (re-broadcast).
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan models.Message
	snapshot SnapshotFunc
	logger   *zap.Logger
	once     sync.Once
}

// NewClient wraps an upgraded websocket connection
func NewClient(h *Hub, conn *websocket.Conn, snapshot SnapshotFunc) *Client {
	return &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan models.Message, sendBuffer),
		snapshot: snapshot,
		logger:   util.GetLogger(),
	}
}

// Send enqueues a message without blocking. A full buffer means the
// subscriber is not keeping up and counts as a send failure.
func (c *Client) Send(msg models.Message) error {
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSlowSubscriber
	}
}

// Run registers the client and pumps until the connection drops. It
// blocks for the lifetime of the connection.
func (c *Client) Run() {
	c.hub.Register(c)
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg models.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Websocket read error", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case models.MessageTypeSubscribe:
			snap, err := c.snapshot(context.Background())
			if err != nil {
				c.logger.Error("Failed to build initial snapshot", zap.Error(err))
				continue
			}
			_ = c.Send(models.Message{Type: models.MessageTypeInitialData, Payload: snap})
		case models.MessageTypeChat:
			c.hub.Publish(msg)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
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

func (c *Client) close() {
	c.once.Do(func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	})
}
