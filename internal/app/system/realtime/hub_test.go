package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeRoomChecker struct {
	existing map[string]bool
	err      error
}

func (f *fakeRoomChecker) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.existing[id.Hex()], nil
}

func newTestHub(rooms *fakeRoomChecker) *Hub {
	return NewHub(rooms, nil, zap.NewNop())
}

// newTestClient registers a connection without a real websocket; frames
// land in the send buffer where tests can read them.
func newTestClient(h *Hub, id string) *Client {
	c := &Client{
		id:   id,
		hub:  h,
		log:  h.log,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	h.add(c)
	return c
}

func drainOne(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return ev
	default:
		t.Fatal("expected a frame, send buffer is empty")
		return Event{}
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected frame: %s", data)
	default:
	}
}

func TestJoin_ExistingRoomConfirms(t *testing.T) {
	roomID := primitive.NewObjectID().Hex()
	h := newTestHub(&fakeRoomChecker{existing: map[string]bool{roomID: true}})
	c := newTestClient(h, "conn-a")

	h.join(context.Background(), c, roomID)

	ev := drainOne(t, c)
	if ev.Type != EventRoomJoined || ev.RoomID != roomID {
		t.Errorf("frame: %+v", ev)
	}
	if n := h.SubscriberCount(roomID); n != 1 {
		t.Errorf("subscribers: got %d, want 1", n)
	}
}

func TestJoin_MissingRoomSignalsDistinctError(t *testing.T) {
	h := newTestHub(&fakeRoomChecker{existing: map[string]bool{}})
	c := newTestClient(h, "conn-a")

	missing := primitive.NewObjectID().Hex()
	h.join(context.Background(), c, missing)

	ev := drainOne(t, c)
	if ev.Type != EventJoinRoomError {
		t.Errorf("frame type: %q, want %q", ev.Type, EventJoinRoomError)
	}
	if n := h.SubscriberCount(missing); n != 0 {
		t.Errorf("failed join must subscribe nothing, got %d", n)
	}
}

func TestJoin_InvalidAndErroredLookups(t *testing.T) {
	h := newTestHub(&fakeRoomChecker{err: errors.New("db down")})
	c := newTestClient(h, "conn-a")

	h.join(context.Background(), c, "not-an-object-id")
	if ev := drainOne(t, c); ev.Type != EventJoinRoomError {
		t.Errorf("invalid id frame: %+v", ev)
	}

	h.join(context.Background(), c, primitive.NewObjectID().Hex())
	if ev := drainOne(t, c); ev.Type != EventJoinRoomError {
		t.Errorf("lookup error frame: %+v", ev)
	}
}

func TestBroadcast_ExcludesOriginator(t *testing.T) {
	roomID := primitive.NewObjectID().Hex()
	h := newTestHub(&fakeRoomChecker{existing: map[string]bool{roomID: true}})

	origin := newTestClient(h, "conn-origin")
	other := newTestClient(h, "conn-other")
	for _, c := range []*Client{origin, other} {
		h.join(context.Background(), c, roomID)
		drainOne(t, c) // roomJoined
	}

	h.Broadcast(roomID, "conn-origin", Event{Type: EventTaskUpdated, Payload: map[string]string{"id": "t1"}})

	ev := drainOne(t, other)
	if ev.Type != EventTaskUpdated || ev.RoomID != roomID {
		t.Errorf("frame: %+v", ev)
	}
	assertEmpty(t, origin)
}

func TestBroadcast_EmptyExcludeNotifiesEveryone(t *testing.T) {
	roomID := primitive.NewObjectID().Hex()
	h := newTestHub(&fakeRoomChecker{existing: map[string]bool{roomID: true}})

	a := newTestClient(h, "conn-a")
	b := newTestClient(h, "conn-b")
	for _, c := range []*Client{a, b} {
		h.join(context.Background(), c, roomID)
		drainOne(t, c)
	}

	h.Broadcast(roomID, "", Event{Type: EventTaskCreated})

	for _, c := range []*Client{a, b} {
		if ev := drainOne(t, c); ev.Type != EventTaskCreated {
			t.Errorf("frame for %s: %+v", c.id, ev)
		}
	}
}

func TestBroadcast_DoesNotLeakAcrossRooms(t *testing.T) {
	roomA := primitive.NewObjectID().Hex()
	roomB := primitive.NewObjectID().Hex()
	h := newTestHub(&fakeRoomChecker{existing: map[string]bool{roomA: true, roomB: true}})

	inA := newTestClient(h, "conn-a")
	inB := newTestClient(h, "conn-b")
	h.join(context.Background(), inA, roomA)
	h.join(context.Background(), inB, roomB)
	drainOne(t, inA)
	drainOne(t, inB)

	h.Broadcast(roomA, "", Event{Type: EventTaskDeleted})

	drainOne(t, inA)
	assertEmpty(t, inB)
}

func TestRemove_DropsAllSubscriptions(t *testing.T) {
	roomID := primitive.NewObjectID().Hex()
	h := newTestHub(&fakeRoomChecker{existing: map[string]bool{roomID: true}})

	c := newTestClient(h, "conn-a")
	h.join(context.Background(), c, roomID)
	drainOne(t, c)

	h.remove(c)

	if n := h.SubscriberCount(roomID); n != 0 {
		t.Errorf("subscribers after remove: got %d, want 0", n)
	}
	if n := h.ConnectionCount(); n != 0 {
		t.Errorf("connections after remove: got %d, want 0", n)
	}
}

func TestLeave_OnlyAffectsThatRoom(t *testing.T) {
	roomA := primitive.NewObjectID().Hex()
	roomB := primitive.NewObjectID().Hex()
	h := newTestHub(&fakeRoomChecker{existing: map[string]bool{roomA: true, roomB: true}})

	c := newTestClient(h, "conn-a")
	h.join(context.Background(), c, roomA)
	h.join(context.Background(), c, roomB)
	drainOne(t, c)
	drainOne(t, c)

	h.leave(c, roomA)

	if n := h.SubscriberCount(roomA); n != 0 {
		t.Errorf("roomA subscribers: got %d, want 0", n)
	}
	if n := h.SubscriberCount(roomB); n != 1 {
		t.Errorf("roomB subscribers: got %d, want 1", n)
	}
}

func TestBroadcast_SlowConsumerIsDropped(t *testing.T) {
	roomID := primitive.NewObjectID().Hex()
	h := newTestHub(&fakeRoomChecker{existing: map[string]bool{roomID: true}})

	slow := newTestClient(h, "conn-slow")
	h.join(context.Background(), slow, roomID)
	drainOne(t, slow)

	// Fill the buffer so the next enqueue fails.
	for i := 0; i < sendBufferSize; i++ {
		if !slow.enqueue(Event{Type: EventTaskUpdated}) {
			t.Fatalf("buffer filled early at %d", i)
		}
	}

	h.Broadcast(roomID, "", Event{Type: EventTaskUpdated})

	select {
	case <-slow.done:
	default:
		t.Error("slow consumer was not closed")
	}
}

func TestAdd_SameConnectionIDReplaces(t *testing.T) {
	h := newTestHub(&fakeRoomChecker{})

	first := newTestClient(h, "conn-a")
	second := newTestClient(h, "conn-a")

	select {
	case <-first.done:
	default:
		t.Error("replaced connection was not closed")
	}
	if n := h.ConnectionCount(); n != 1 {
		t.Errorf("connections: got %d, want 1", n)
	}
	h.remove(second)
}
