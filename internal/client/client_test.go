package client

import (
	"sync"
	"testing"
	"time"

	"github.com/doodleyaar/client/internal/capture"
	"github.com/doodleyaar/client/internal/protocol"
	"github.com/doodleyaar/client/internal/session"
	"github.com/doodleyaar/client/internal/stroke"
)

// Stands in for the websocket channel to the authority
type fakeChannel struct {
	mu        sync.Mutex
	sent      []protocol.Message
	inbound   chan protocol.Message
	closeOnce sync.Once
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{inbound: make(chan protocol.Message, 64)}
}

func (f *fakeChannel) Send(m protocol.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeChannel) TrySend(m protocol.Message) bool {
	return f.Send(m) == nil
}

func (f *fakeChannel) Inbound() <-chan protocol.Message {
	return f.inbound
}

func (f *fakeChannel) Close() error {
	f.closeOnce.Do(func() { close(f.inbound) })
	return nil
}

func (f *fakeChannel) sentEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]string, len(f.sent))
	for i, m := range f.sent {
		events[i] = m.Event
	}
	return events
}

func (f *fakeChannel) lastPayload(t *testing.T, event string, v any) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Event == event {
			if err := f.sent[i].Decode(v); err != nil {
				t.Fatalf("Decode %s: %v", event, err)
			}
			return
		}
	}
	t.Fatalf("No %s message was sent", event)
}

func (f *fakeChannel) push(t *testing.T, event string, payload any) {
	t.Helper()
	msg, err := protocol.NewMessage(event, payload)
	if err != nil {
		t.Fatalf("NewMessage %s: %v", event, err)
	}
	f.inbound <- msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("Condition not reached in time")
}

func newTestClient(t *testing.T) (*Client, *fakeChannel) {
	t.Helper()
	ch := newFakeChannel()
	c := New(ch, 100, 100, Callbacks{})
	t.Cleanup(func() { c.Close() })

	ch.push(t, protocol.EventConnected, protocol.Connected{UserID: "me"})
	waitFor(t, func() bool { return c.Session().UserID() == "me" })
	return c, ch
}

func TestDrawingGestureSendsStartDrawEnd(t *testing.T) {
	c, ch := newTestClient(t)
	c.SetColor("#ff0000")
	c.SetSize(5)
	c.SetOpacity(1)

	c.PointerDown(&capture.Position{X: 10, Y: 10})
	time.Sleep(60 * time.Millisecond) // let the throttle window lapse
	c.PointerMove(&capture.Position{X: 50, Y: 50})
	c.PointerMove(&capture.Position{X: 90, Y: 10})
	c.PointerUp()

	events := ch.sentEvents()
	counts := map[string]int{}
	for _, e := range events {
		counts[e]++
	}
	if counts[protocol.EventStartStroke] != 1 {
		t.Errorf("Expected 1 start-stroke, got %d", counts[protocol.EventStartStroke])
	}
	if counts[protocol.EventDrawStroke] < 1 {
		t.Errorf("Expected at least 1 draw-stroke, got %d", counts[protocol.EventDrawStroke])
	}
	if counts[protocol.EventEndStroke] != 1 {
		t.Errorf("Expected exactly 1 end-stroke, got %d", counts[protocol.EventEndStroke])
	}

	var end protocol.StrokeEvent
	ch.lastPayload(t, protocol.EventEndStroke, &end)
	if len(end.Points) != 3 {
		t.Errorf("End-stroke should carry all 3 points, got %d", len(end.Points))
	}
	if end.Color != "#ff0000" || end.Size != 5 || end.Opacity != 1 || end.Tool != stroke.ToolPencil {
		t.Errorf("End-stroke should carry the original style: %+v", end)
	}

	var start protocol.StrokeEvent
	ch.lastPayload(t, protocol.EventStartStroke, &start)
	if len(start.Points) != 1 || start.Points[0] != (stroke.Point{X: 0.1, Y: 0.1}) {
		t.Errorf("Start-stroke should carry the first point, got %+v", start.Points)
	}
}

func TestClearCanvasWaitsForAuthority(t *testing.T) {
	c, ch := newTestClient(t)

	ch.push(t, protocol.EventSessionCreated, protocol.SessionCreated{Code: "ABCD", Nick: "Alice", HostID: "me"})
	waitFor(t, func() bool { return c.Session().Active() })

	ch.push(t, protocol.EventNewStroke, protocol.NewStroke{Stroke: stroke.Stroke{
		ID: "s1", UserID: "peer",
		Points: []stroke.Point{{X: 0.5, Y: 0.5}},
		Color:  "#000000", Size: 5, Opacity: 1, Tool: stroke.ToolPencil,
	}})
	waitFor(t, func() bool { return c.Stats().Strokes == 1 })

	if err := c.ClearCanvas(); err != nil {
		t.Fatalf("Host clear should be allowed: %v", err)
	}

	// Request sent, but nothing changes until the authority confirms.
	if c.Stats().Strokes != 1 {
		t.Error("Finalized collection must not change before canvas-cleared arrives")
	}

	ch.push(t, protocol.EventCanvasCleared, nil)
	waitFor(t, func() bool { return c.Stats().Strokes == 0 })
}

func TestClearCanvasRejectedForNonHost(t *testing.T) {
	c, ch := newTestClient(t)

	ch.push(t, protocol.EventJoinSuccess, protocol.JoinSuccess{
		Code: "ABCD", Nick: "Bob", HostID: "other",
		Members: map[string]string{"other": "Alice", "me": "Bob"},
	})
	waitFor(t, func() bool { return c.Session().Active() })

	if err := c.ClearCanvas(); err != ErrNotHost {
		t.Errorf("Expected ErrNotHost, got %v", err)
	}
	for _, e := range ch.sentEvents() {
		if e == protocol.EventClearCanvas {
			t.Error("Rejected clear must not reach the wire")
		}
	}
}

func TestLiveStrokeLastWriteWinsThroughDispatch(t *testing.T) {
	c, ch := newTestClient(t)

	first := stroke.Stroke{UserID: "peer", Points: []stroke.Point{{X: 0.1, Y: 0.1}}, Color: "#000000", Size: 5, Opacity: 1, Tool: stroke.ToolPencil}
	second := first
	second.Points = []stroke.Point{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}}

	ch.push(t, protocol.EventLiveStroke, protocol.LiveStroke{Stroke: first})
	ch.push(t, protocol.EventLiveStroke, protocol.LiveStroke{Stroke: second})
	ch.push(t, protocol.EventEndLiveStroke, protocol.EndLiveStroke{UserID: "peer"})
	waitFor(t, func() bool { return c.Stats().Live == 0 })

	// Ending a live stroke twice stays a no-op.
	ch.push(t, protocol.EventEndLiveStroke, protocol.EndLiveStroke{UserID: "peer"})
	ch.push(t, protocol.EventRemoveStroke, protocol.RemoveStroke{ID: "never-there"})
	ch.push(t, protocol.EventCanvasCleared, nil)
	waitFor(t, func() bool { return c.Stats().Strokes == 0 })
}

func TestHostChangeMovesBadgeWithoutSnapshot(t *testing.T) {
	ch := newFakeChannel()
	var (
		mu   sync.Mutex
		last []session.Member
	)
	c := New(ch, 100, 100, Callbacks{
		OnMembers: func(members []session.Member) {
			mu.Lock()
			last = members
			mu.Unlock()
		},
	})
	t.Cleanup(func() { c.Close() })

	ch.push(t, protocol.EventConnected, protocol.Connected{UserID: "u2"})
	ch.push(t, protocol.EventJoinSuccess, protocol.JoinSuccess{
		Code: "ABCD", Nick: "Bob", HostID: "u1",
		Members: map[string]string{"u1": "Alice", "u2": "Bob"},
	})
	waitFor(t, func() bool { return c.Session().Active() })

	// Host change with no accompanying membership snapshot.
	ch.push(t, protocol.EventNewHost, protocol.NewHost{HostID: "u2"})
	waitFor(t, func() bool { return c.Session().HostID() == "u2" })

	mu.Lock()
	defer mu.Unlock()
	if len(last) != 2 {
		t.Fatalf("Presentation should come from the cached snapshot, got %d members", len(last))
	}
	for _, m := range last {
		if m.ID == "u2" && !m.Host {
			t.Error("Bob should carry the host badge")
		}
		if m.ID == "u1" && m.Host {
			t.Error("Alice should have lost the host badge")
		}
	}
}

func TestValidationStopsBadRequests(t *testing.T) {
	c, ch := newTestClient(t)

	if err := c.CreateSession("   "); err == nil {
		t.Error("Empty nickname should be rejected")
	}
	if err := c.JoinSession("Alice", "  "); err == nil {
		t.Error("Empty code should be rejected")
	}
	for _, e := range ch.sentEvents() {
		if e == protocol.EventCreateSession || e == protocol.EventJoinSession {
			t.Error("Invalid requests must not reach the wire")
		}
	}

	if err := c.JoinSession("Alice", " abcd "); err != nil {
		t.Fatalf("Valid join failed: %v", err)
	}
	var join protocol.JoinSession
	ch.lastPayload(t, protocol.EventJoinSession, &join)
	if join.Code != "ABCD" {
		t.Errorf("Code should be normalized upper-case, got %q", join.Code)
	}
}

func TestUnknownEventIsIgnored(t *testing.T) {
	c, ch := newTestClient(t)

	ch.push(t, "telemetry-ping", nil)
	ch.push(t, protocol.EventCanvasCleared, nil)
	waitFor(t, func() bool { return c.Stats().Strokes == 0 })
}

func TestSnapshotReflectsRemoteStrokes(t *testing.T) {
	c, ch := newTestClient(t)

	ch.push(t, protocol.EventNewStroke, protocol.NewStroke{Stroke: stroke.Stroke{
		ID: "s1", UserID: "peer",
		Points: []stroke.Point{{X: 0.1, Y: 0.5}, {X: 0.9, Y: 0.5}},
		Color:  "#000000", Size: 8, Opacity: 1, Tool: stroke.ToolPencil,
	}})
	waitFor(t, func() bool { return c.Stats().Strokes == 1 })

	img := c.Snapshot()
	if img == nil {
		t.Fatal("Snapshot should never be nil")
	}
	if _, _, _, a := img.At(50, 50).RGBA(); a == 0 {
		t.Error("Remote stroke should appear in the rendered frame")
	}
}
