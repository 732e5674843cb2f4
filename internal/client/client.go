// Package client wires capture, reconciliation, session state and
// rendering to the authority channel. Inbound events are applied by a
// single dispatch goroutine in delivery order, and every state mutation
// renders synchronously before the next event is taken.
package client

import (
	"errors"
	"image"
	"log"
	"strings"
	"sync"

	"github.com/doodleyaar/client/internal/board"
	"github.com/doodleyaar/client/internal/capture"
	"github.com/doodleyaar/client/internal/protocol"
	"github.com/doodleyaar/client/internal/render"
	"github.com/doodleyaar/client/internal/session"
	"github.com/doodleyaar/client/internal/stroke"
)

var ErrNotHost = errors.New("only the host can clear the canvas")

// Channel is what the client needs from the transport. *transport.Conn
// satisfies it; tests substitute a fake.
type Channel interface {
	Send(protocol.Message) error
	TrySend(protocol.Message) bool
	Inbound() <-chan protocol.Message
	Close() error
}

// Callbacks let a presentation layer subscribe to state changes without
// the core knowing anything about it. All callbacks fire from the
// dispatch goroutine. Nil callbacks are skipped.
type Callbacks struct {
	OnSession func(code, nickname string)
	OnMembers func([]session.Member)
	OnChat    func([]protocol.ChatMessage)
	OnError   func(text string)
}

type Client struct {
	ch   Channel
	cb   Callbacks
	bd   *board.Board
	sess *session.Session
	cap  *capture.Capturer

	mu       sync.Mutex
	renderer *render.Renderer
	frame    *image.RGBA

	done chan struct{}
}

// Stats is a point-in-time summary for diagnostics.
type Stats struct {
	Code    string `json:"code"`
	Members int    `json:"members"`
	Strokes int    `json:"strokes"`
	Live    int    `json:"live"`
}

// New starts a client over an established channel with a canvas of the
// given pixel size.
func New(ch Channel, width, height int, cb Callbacks) *Client {
	c := &Client{
		ch:   ch,
		cb:   cb,
		bd:   board.New(),
		sess: session.New(),
		done: make(chan struct{}),
	}
	c.renderer = render.New(width, height)
	c.bd.SetOnChange(c.redraw)
	c.cap = capture.New(c, c.redraw)
	c.cap.SetBounds(capture.Bounds{W: float64(width), H: float64(height)})
	c.redraw()

	go c.dispatch()
	return c
}

// Close shuts the channel down; the dispatch goroutine exits once the
// inbound channel drains.
func (c *Client) Close() error {
	c.sess.End()
	return c.ch.Close()
}

// Done closes when the inbound channel has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Session() *session.Session {
	return c.sess
}

func (c *Client) Stats() Stats {
	return Stats{
		Code:    c.sess.Code(),
		Members: c.sess.MemberCount(),
		Strokes: c.bd.StrokeCount(),
		Live:    c.bd.LiveCount(),
	}
}

// Snapshot returns the most recently rendered frame. Frames are never
// mutated after rendering.
func (c *Client) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Resize changes the canvas pixel size and re-renders. Stored points
// are normalized, so nothing needs re-normalizing.
func (c *Client) Resize(width, height int) {
	c.mu.Lock()
	c.renderer = render.New(width, height)
	c.mu.Unlock()
	c.cap.SetBounds(capture.Bounds{W: float64(width), H: float64(height)})
	c.redraw()
}

// Session requests

func (c *Client) CreateSession(nickname string) error {
	nick, err := session.ValidateNickname(nickname)
	if err != nil {
		return err
	}
	msg, err := protocol.NewMessage(protocol.EventCreateSession, protocol.CreateSession{Nick: nick})
	if err != nil {
		return err
	}
	return c.ch.Send(msg)
}

func (c *Client) JoinSession(nickname, code string) error {
	nick, err := session.ValidateNickname(nickname)
	if err != nil {
		return err
	}
	normalized, err := session.ValidateCode(code)
	if err != nil {
		return err
	}
	msg, err := protocol.NewMessage(protocol.EventJoinSession, protocol.JoinSession{Nick: nick, Code: normalized})
	if err != nil {
		return err
	}
	return c.ch.Send(msg)
}

// SendMessage ships a chat line. Empty input is silently ignored, not
// an error.
func (c *Client) SendMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	msg, err := protocol.NewMessage(protocol.EventSendMessage, protocol.SendMessage{
		Message:  text,
		Nickname: c.sess.Nickname(),
	})
	if err != nil {
		return err
	}
	return c.ch.Send(msg)
}

// Undo asks the authority to remove the caller's latest stroke. The
// local collection only changes when remove-stroke comes back.
func (c *Client) Undo() error {
	msg, err := protocol.NewMessage(protocol.EventUndoStroke, nil)
	if err != nil {
		return err
	}
	return c.ch.Send(msg)
}

// ClearCanvas is host-only. The finalized collection stays untouched
// until canvas-cleared arrives.
func (c *Client) ClearCanvas() error {
	if !c.sess.IsHost() {
		return ErrNotHost
	}
	msg, err := protocol.NewMessage(protocol.EventClearCanvas, nil)
	if err != nil {
		return err
	}
	return c.ch.Send(msg)
}

// Pointer input, forwarded to the capture pipeline.

func (c *Client) PointerDown(pos *capture.Position) { c.cap.Down(pos) }
func (c *Client) PointerMove(pos *capture.Position) { c.cap.Move(pos) }
func (c *Client) PointerUp()                        { c.cap.Up() }

func (c *Client) SetTool(t stroke.Tool)      { c.cap.SetTool(t) }
func (c *Client) SetColor(color string)      { c.cap.SetColor(color) }
func (c *Client) SetSize(size float64)       { c.cap.SetSize(size) }
func (c *Client) SetOpacity(opacity float64) { c.cap.SetOpacity(opacity) }

// capture.Emitter

func (c *Client) StartStroke(points []stroke.Point, b stroke.Brush) {
	c.sendStrokeEvent(protocol.EventStartStroke, points, b)
}

func (c *Client) DrawStroke(points []stroke.Point) {
	msg, err := protocol.NewMessage(protocol.EventDrawStroke, protocol.DrawStroke{Points: points})
	if err != nil {
		log.Printf("client: %v", err)
		return
	}
	c.ch.TrySend(msg)
}

func (c *Client) EndStroke(points []stroke.Point, b stroke.Brush) {
	c.sendStrokeEvent(protocol.EventEndStroke, points, b)
}

func (c *Client) sendStrokeEvent(event string, points []stroke.Point, b stroke.Brush) {
	msg, err := protocol.NewMessage(event, protocol.StrokeEvent{
		Points:  points,
		Color:   b.Color,
		Size:    b.Size,
		Opacity: b.Opacity,
		Tool:    b.Tool,
	})
	if err != nil {
		log.Printf("client: %v", err)
		return
	}
	if err := c.ch.Send(msg); err != nil {
		log.Printf("client: send %s: %v", event, err)
	}
}

// redraw composes the board, peers' live strokes and the local
// in-progress stroke into a fresh frame. Runs after every mutation.
func (c *Client) redraw() {
	finalized, live := c.bd.Frame(c.sess.UserID())

	frame := render.Frame{Finalized: finalized, Live: live}
	if s, ok := c.cap.Current(); ok {
		frame.Local = &s
	}

	c.mu.Lock()
	c.frame = c.renderer.Render(frame)
	c.mu.Unlock()
}
