// Package transport maintains the websocket channel to the session
// authority. Sends are fire-and-forget; inbound messages come out of
// one channel in delivery order.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/doodleyaar/client/internal/protocol"
	"github.com/doodleyaar/client/internal/ratelimit"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024 * 1024

	// Hard outbound ceiling; far above the 20/s draw throttle.
	sendsPerSecond = 100
	sendBurst      = 200
)

var ErrConnClosed = errors.New("transport: connection closed")

type Conn struct {
	ws        *websocket.Conn
	send      chan []byte
	inbound   chan protocol.Message
	limiter   *ratelimit.Limiter
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the authority and starts the read and write pumps.
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Conn{
		ws:      ws,
		send:    make(chan []byte, 512),
		inbound: make(chan protocol.Message, 256),
		limiter: ratelimit.NewLimiter(sendsPerSecond, sendBurst),
		done:    make(chan struct{}),
	}

	go c.writePump()
	go c.readPump()

	return c, nil
}

// Inbound delivers authority events in the order they arrived. The
// channel closes when the connection is lost or Close is called.
func (c *Conn) Inbound() <-chan protocol.Message {
	return c.inbound
}

// Send queues a message without waiting for delivery. It fails only
// when the connection is closed or the outbound buffer is full.
func (c *Conn) Send(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("send %s: outbound buffer full", m.Event)
	}
}

// TrySend is Send for droppable traffic: throttled draw updates that
// the next update or the stroke end supersedes anyway. It reports
// whether the message was queued.
func (c *Conn) TrySend(m protocol.Message) bool {
	if !c.limiter.Allow() {
		return false
	}
	return c.Send(m) == nil
}

// Close tears the channel down. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(writeWait)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = c.ws.Close()
	})
	return nil
}

func (c *Conn) readPump() {
	defer func() {
		c.Close()
		close(c.inbound)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("transport: read error: %v", err)
			}
			return
		}

		msg, err := protocol.Parse(data)
		if err != nil {
			log.Printf("transport: dropping invalid message: %v", err)
			continue
		}

		select {
		case c.inbound <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
