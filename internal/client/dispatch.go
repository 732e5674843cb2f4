package client

import (
	"log"

	"github.com/doodleyaar/client/internal/protocol"
)

// dispatch applies authority events one at a time, in delivery order.
func (c *Client) dispatch() {
	defer close(c.done)
	for msg := range c.ch.Inbound() {
		c.handle(msg)
	}
}

func (c *Client) handle(msg protocol.Message) {
	switch msg.Event {
	case protocol.EventConnected:
		var p protocol.Connected
		if !c.decode(msg, &p) {
			return
		}
		c.sess.SetUserID(p.UserID)
		log.Printf("connected as %s", p.UserID)

	case protocol.EventSessionCreated:
		var p protocol.SessionCreated
		if !c.decode(msg, &p) {
			return
		}
		c.sess.Begin(p.Code, p.Nick, p.HostID, nil, nil)
		c.bd.Load(nil)
		c.notifySession()

	case protocol.EventJoinSuccess:
		var p protocol.JoinSuccess
		if !c.decode(msg, &p) {
			return
		}
		c.sess.Begin(p.Code, p.Nick, p.HostID, p.Members, p.Chat)
		c.bd.Load(p.Strokes)
		c.notifySession()

	case protocol.EventErrorMessage:
		var p protocol.ErrorMessage
		if !c.decode(msg, &p) {
			return
		}
		if c.cb.OnError != nil {
			c.cb.OnError(p.Text)
		}

	case protocol.EventUpdateMembers:
		var p protocol.UpdateMembers
		if !c.decode(msg, &p) {
			return
		}
		c.sess.SetMembers(p.Members)
		c.notifyMembers()

	case protocol.EventNewHost:
		// Id-only notice: apply immediately and re-derive the member
		// presentation from the cached snapshot.
		var p protocol.NewHost
		if !c.decode(msg, &p) {
			return
		}
		c.sess.SetHost(p.HostID)
		c.notifyMembers()

	case protocol.EventUpdateChat:
		var p protocol.UpdateChat
		if !c.decode(msg, &p) {
			return
		}
		c.sess.SetChat(p.ChatLog)
		if c.cb.OnChat != nil {
			c.cb.OnChat(c.sess.Chat())
		}

	case protocol.EventNewStroke:
		var p protocol.NewStroke
		if !c.decode(msg, &p) {
			return
		}
		c.bd.Add(p.Stroke)

	case protocol.EventLiveStroke:
		var p protocol.LiveStroke
		if !c.decode(msg, &p) {
			return
		}
		c.bd.SetLive(p.Stroke)

	case protocol.EventEndLiveStroke:
		var p protocol.EndLiveStroke
		if !c.decode(msg, &p) {
			return
		}
		c.bd.EndLive(p.UserID)

	case protocol.EventRemoveStroke:
		var p protocol.RemoveStroke
		if !c.decode(msg, &p) {
			return
		}
		c.bd.Remove(p.ID)

	case protocol.EventCanvasCleared:
		c.bd.Clear()

	default:
		log.Printf("client: ignoring unknown event %q", msg.Event)
	}
}

func (c *Client) decode(msg protocol.Message, v any) bool {
	if err := msg.Decode(v); err != nil {
		log.Printf("client: %v", err)
		return false
	}
	return true
}

func (c *Client) notifySession() {
	if c.cb.OnSession != nil {
		c.cb.OnSession(c.sess.Code(), c.sess.Nickname())
	}
	c.notifyMembers()
	if c.cb.OnChat != nil {
		c.cb.OnChat(c.sess.Chat())
	}
}

func (c *Client) notifyMembers() {
	if c.cb.OnMembers != nil {
		c.cb.OnMembers(c.sess.Members())
	}
}
