package board

import (
	"sort"
	"sync"

	"github.com/doodleyaar/client/internal/stroke"
)

// Board is the client-side reconciliation store: finalized session
// history keyed by stroke id, and other users' in-progress strokes
// keyed by user id. The authority serializes all writes, so applying
// its events here is pure state merge. Every mutation fires the change
// callback so the raster never lags a partially applied event.
type Board struct {
	mu       sync.RWMutex
	strokes  map[string]stroke.Stroke
	order    []string
	live     map[string]stroke.Stroke
	onChange func()
}

func New() *Board {
	return &Board{
		strokes: make(map[string]stroke.Stroke),
		live:    make(map[string]stroke.Stroke),
	}
}

// SetOnChange installs the render trigger. Must be set before events
// start arriving.
func (b *Board) SetOnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Load replaces the finalized collection with a session's history, in
// the order the authority delivered it.
func (b *Board) Load(strokes []stroke.Stroke) {
	b.mu.Lock()
	b.strokes = make(map[string]stroke.Stroke, len(strokes))
	b.order = b.order[:0]
	for _, s := range strokes {
		if s.ID == "" {
			continue
		}
		if _, exists := b.strokes[s.ID]; !exists {
			b.order = append(b.order, s.ID)
		}
		b.strokes[s.ID] = s
	}
	b.changed()
}

// Add inserts a finalized stroke. Insertion order is remembered so the
// render order stays deterministic; map iteration order is not.
func (b *Board) Add(s stroke.Stroke) {
	if s.ID == "" || len(s.Points) == 0 {
		return
	}
	b.mu.Lock()
	if _, exists := b.strokes[s.ID]; !exists {
		b.order = append(b.order, s.ID)
	}
	b.strokes[s.ID] = s
	b.changed()
}

// Remove drops a finalized stroke by id. Removing an unknown id is a
// no-op: an undo can race a late-arriving add across channels.
func (b *Board) Remove(id string) {
	b.mu.Lock()
	if _, exists := b.strokes[id]; exists {
		delete(b.strokes, id)
		for i, sid := range b.order {
			if sid == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
	b.changed()
}

// Clear empties the finalized collection. Live strokes are unaffected.
func (b *Board) Clear() {
	b.mu.Lock()
	b.strokes = make(map[string]stroke.Stroke)
	b.order = b.order[:0]
	b.changed()
}

// SetLive upserts a user's in-progress stroke, last write wins. Only
// one live stroke per user can exist at a time.
func (b *Board) SetLive(s stroke.Stroke) {
	if s.UserID == "" {
		return
	}
	b.mu.Lock()
	b.live[s.UserID] = s
	b.changed()
}

// EndLive removes a user's live stroke. Unknown users are a no-op.
func (b *Board) EndLive(userID string) {
	b.mu.Lock()
	delete(b.live, userID)
	b.changed()
}

// Frame snapshots the board for rendering: finalized strokes in
// insertion order, then live strokes excluding the given user (the
// local in-progress stroke renders from capture state instead). Live
// strokes come out sorted by user id so a frame is reproducible.
func (b *Board) Frame(excludeUser string) (finalized, live []stroke.Stroke) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	finalized = make([]stroke.Stroke, 0, len(b.order))
	for _, id := range b.order {
		finalized = append(finalized, b.strokes[id])
	}

	live = make([]stroke.Stroke, 0, len(b.live))
	for userID, s := range b.live {
		if userID == excludeUser {
			continue
		}
		live = append(live, s)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].UserID < live[j].UserID })
	return finalized, live
}

func (b *Board) StrokeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.strokes)
}

func (b *Board) LiveCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.live)
}

// changed releases the lock and fires the render trigger.
func (b *Board) changed() {
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}
