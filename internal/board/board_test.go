package board

import (
	"testing"

	"github.com/doodleyaar/client/internal/stroke"
)

func testStroke(id, userID string) stroke.Stroke {
	return stroke.Stroke{
		ID:      id,
		UserID:  userID,
		Points:  []stroke.Point{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.5}},
		Color:   "#000000",
		Size:    5,
		Opacity: 1,
		Tool:    stroke.ToolPencil,
	}
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	b := New()
	b.Add(testStroke("c", "u1"))
	b.Add(testStroke("a", "u1"))
	b.Add(testStroke("b", "u2"))

	finalized, _ := b.Frame("")
	if len(finalized) != 3 {
		t.Fatalf("Expected 3 strokes, got %d", len(finalized))
	}
	for i, want := range []string{"c", "a", "b"} {
		if finalized[i].ID != want {
			t.Errorf("Position %d: expected %q, got %q", i, want, finalized[i].ID)
		}
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	b := New()
	b.Add(testStroke("a", "u1"))

	b.Remove("a")
	b.Remove("a")
	b.Remove("never-existed")

	if b.StrokeCount() != 0 {
		t.Errorf("Expected empty board, have %d strokes", b.StrokeCount())
	}
	finalized, _ := b.Frame("")
	if len(finalized) != 0 {
		t.Error("Order list should shrink with removals")
	}
}

func TestClearEmptiesFinalizedOnly(t *testing.T) {
	b := New()
	b.Add(testStroke("a", "u1"))
	b.Add(testStroke("b", "u2"))
	live := testStroke("", "u3")
	b.SetLive(live)

	b.Clear()

	if b.StrokeCount() != 0 {
		t.Error("Clear should empty the finalized collection")
	}
	if b.LiveCount() != 1 {
		t.Error("Clear should not touch live strokes")
	}
}

func TestLiveStrokeLastWriteWins(t *testing.T) {
	b := New()

	first := testStroke("", "u1")
	second := testStroke("", "u1")
	second.Points = append(second.Points, stroke.Point{X: 0.9, Y: 0.9})

	b.SetLive(first)
	b.SetLive(second)

	if b.LiveCount() != 1 {
		t.Fatalf("One user should hold one live entry, got %d", b.LiveCount())
	}
	_, live := b.Frame("")
	if len(live) != 1 || len(live[0].Points) != 3 {
		t.Error("The later live update should replace the earlier one")
	}
}

func TestEndLiveIsIdempotent(t *testing.T) {
	b := New()
	b.SetLive(testStroke("", "u1"))

	b.EndLive("u1")
	b.EndLive("u1")
	b.EndLive("ghost")

	if b.LiveCount() != 0 {
		t.Errorf("Expected no live strokes, got %d", b.LiveCount())
	}
}

func TestFrameExcludesOwnLiveStroke(t *testing.T) {
	b := New()
	b.SetLive(testStroke("", "me"))
	b.SetLive(testStroke("", "peer"))

	_, live := b.Frame("me")

	if len(live) != 1 || live[0].UserID != "peer" {
		t.Errorf("Frame should exclude the local user's live entry, got %+v", live)
	}
}

func TestLoadReplacesHistory(t *testing.T) {
	b := New()
	b.Add(testStroke("old", "u1"))

	b.Load([]stroke.Stroke{testStroke("n1", "u1"), testStroke("n2", "u2")})

	finalized, _ := b.Frame("")
	if len(finalized) != 2 || finalized[0].ID != "n1" || finalized[1].ID != "n2" {
		t.Errorf("Load should replace history in delivery order, got %+v", finalized)
	}
}

func TestEveryMutationFiresOnChange(t *testing.T) {
	b := New()
	changes := 0
	b.SetOnChange(func() { changes++ })

	b.Add(testStroke("a", "u1"))
	b.SetLive(testStroke("", "u2"))
	b.EndLive("u2")
	b.Remove("a")
	b.Clear()

	if changes != 5 {
		t.Errorf("Expected 5 change notifications, got %d", changes)
	}
}
