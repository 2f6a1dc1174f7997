package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/heronhoga/bars-fe/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096 // 4KB
	sendBuffer     = 64
)

// Client WebSocket 客户端
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Visitor string

	mu     sync.Mutex
	closed bool
}

// NewClient wraps conn for hub.
func NewClient(hub *Hub, conn *websocket.Conn, visitor string) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		Visitor: visitor,
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ReadPump 读取消息循环. Messages are handled one at a time on a worker
// goroutine so the read loop keeps watching the socket while an upstream call
// is in flight. navigate or a read error cancels ctx and runs onClose right
// away; ReadPump returns after the worker has drained.
func (c *Client) ReadPump(ctx context.Context, handler func(ctx context.Context, msg *WSMessage), onClose func()) {
	ctx, cancel := context.WithCancel(ctx)
	var closeOnce sync.Once
	stop := func() {
		closeOnce.Do(func() {
			cancel()
			if onClose != nil {
				onClose()
			}
		})
	}

	work := make(chan *WSMessage, sendBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range work {
			// 会话已结束, 剩下的消息直接丢弃
			if ctx.Err() != nil {
				continue
			}
			handler(ctx, msg)
		}
	}()

	defer func() {
		stop()
		close(work)
		<-done
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error",
					logger.ErrorField(err),
					logger.String("visitor", c.Visitor))
			}
			return
		}
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("invalid message format",
				logger.ErrorField(err),
				logger.String("visitor", c.Visitor))
			continue
		}

		// 处理心跳
		if msg.Type == MsgTypePing {
			if pong, err := NewMessage(MsgTypePong, nil); err == nil {
				c.SendMessage(pong)
			}
			continue
		}

		if msg.Type == MsgTypeNavigate {
			stop()
			return
		}

		select {
		case work <- &msg:
		case <-ctx.Done():
			return
		}
	}
}

// WritePump 写入消息循环
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了通道
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// 合并发送队列中的消息
			n := len(c.Send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端; messages are dropped when the buffer is full or the client closed.
func (c *Client) SendMessage(msg *WSMessage) {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to encode message", logger.ErrorField(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		logger.Warn("send buffer full, dropping message",
			logger.String("visitor", c.Visitor),
			logger.String("type", string(msg.Type)))
	}
}
