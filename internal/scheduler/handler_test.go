package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/typefo/lamb/internal/queue"
	"github.com/typefo/lamb/internal/routing"
	"github.com/typefo/lamb/internal/wire"
)

func submitPayload(t *testing.T, phone string) []byte {
	t.Helper()
	b, err := json.Marshal(wire.Submit{ID: 1, Phone: phone})
	if err != nil {
		t.Fatalf("marshal submit: %v", err)
	}
	return b
}

func TestPushHandlerRoutesAndEnqueues(t *testing.T) {
	pool := queue.NewPool()
	pool.FindOrCreate(10) // give channel 10 an existing (empty) queue

	load := func(ctx context.Context, account uint32) ([]routing.Channel, error) {
		return []routing.Channel{{ID: 10, Operator: routing.CMCC}}, nil
	}
	h := NewPushHandler(context.Background(), pool, 1, load, nil)

	ack, sendAck, err := h.Handle(wire.CmdSubmit, submitPayload(t, "13800000000"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !sendAck || ack != wire.CmdOK {
		t.Fatalf("got ack=%v sendAck=%v, want OK/true", ack, sendAck)
	}
	if depth, _ := pool.Depth(10); depth != 1 {
		t.Fatalf("got depth %d, want 1", depth)
	}
}

func TestPushHandlerNoRouteOnEmptyChannelList(t *testing.T) {
	pool := queue.NewPool()
	load := func(ctx context.Context, account uint32) ([]routing.Channel, error) {
		return nil, nil
	}
	h := NewPushHandler(context.Background(), pool, 1, load, nil)

	ack, _, err := h.Handle(wire.CmdSubmit, submitPayload(t, "13800000000"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if ack != wire.CmdNoRoute {
		t.Fatalf("got %v, want NOROUTE", ack)
	}
}

func TestPushHandlerDegradesToNoRouteOnLoadError(t *testing.T) {
	pool := queue.NewPool()
	load := func(ctx context.Context, account uint32) ([]routing.Channel, error) {
		return nil, errors.New("connection refused")
	}
	h := NewPushHandler(context.Background(), pool, 1, load, nil)

	ack, _, err := h.Handle(wire.CmdSubmit, submitPayload(t, "13800000000"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if ack != wire.CmdNoRoute {
		t.Fatalf("got %v, want NOROUTE on a DB load failure", ack)
	}
}

func TestPushHandlerBusyWhenChannelFull(t *testing.T) {
	pool := queue.NewPool()
	q := pool.FindOrCreate(10)
	for i := 0; i < routing.CapacityThreshold; i++ {
		q.Push(&queue.Item{Kind: queue.KindSubmit, Submit: &wire.Submit{ID: uint64(i)}})
	}

	load := func(ctx context.Context, account uint32) ([]routing.Channel, error) {
		return []routing.Channel{{ID: 10, Operator: routing.CMCC}}, nil
	}
	h := NewPushHandler(context.Background(), pool, 1, load, nil)

	ack, _, err := h.Handle(wire.CmdSubmit, submitPayload(t, "13800000000"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if ack != wire.CmdBusy {
		t.Fatalf("got %v, want BUSY at capacity threshold", ack)
	}
}

func TestPushHandlerRejectsUnmatchedOperator(t *testing.T) {
	pool := queue.NewPool()
	pool.FindOrCreate(10)

	load := func(ctx context.Context, account uint32) ([]routing.Channel, error) {
		return []routing.Channel{{ID: 10, Operator: routing.CTCC}}, nil
	}
	h := NewPushHandler(context.Background(), pool, 1, load, nil)

	// 138 classifies as CMCC; the only channel only carries CTCC.
	ack, _, err := h.Handle(wire.CmdSubmit, submitPayload(t, "13800000000"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if ack != wire.CmdReject {
		t.Fatalf("got %v, want REJECT", ack)
	}
}

func TestTestHandlerOKWhenChannelQueueExists(t *testing.T) {
	pool := queue.NewPool()
	pool.FindOrCreate(42)
	h := NewTestHandler(pool)

	payload, _ := json.Marshal(wire.Message{ID: 1, Channel: 42, Phone: "13800000000"})
	ack, sendAck, err := h.Handle(wire.CmdMessage, payload)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !sendAck || ack != wire.CmdOK {
		t.Fatalf("got ack=%v sendAck=%v, want OK/true", ack, sendAck)
	}
	if depth, _ := pool.Depth(42); depth != 1 {
		t.Fatalf("got depth %d, want 1", depth)
	}
}

func TestTestHandlerNoRouteWhenChannelMissing(t *testing.T) {
	pool := queue.NewPool()
	h := NewTestHandler(pool)

	payload, _ := json.Marshal(wire.Message{ID: 1, Channel: 999})
	ack, _, err := h.Handle(wire.CmdMessage, payload)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if ack != wire.CmdNoRoute {
		t.Fatalf("got %v, want NOROUTE for an unknown channel", ack)
	}
}
