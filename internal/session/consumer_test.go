package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/typefo/lamb/internal/queue"
	"github.com/typefo/lamb/internal/wire"
)

func TestRunConsumerPopsInFIFOOrderThenReportsEmpty(t *testing.T) {
	pool := queue.NewPool()
	q := pool.FindOrCreate(5)
	q.Push(&queue.Item{Kind: queue.KindSubmit, Submit: &wire.Submit{ID: 1, Phone: "first"}})
	q.Push(&queue.Item{Kind: queue.KindSubmit, Submit: &wire.Submit{ID: 2, Phone: "second"}})

	ready := make(chan Result, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go RunConsumer(ctx, Peer{ID: 5, Type: wire.SessionPull}, "127.0.0.1", 20300, 2*time.Second, pool, ready, testLogger())

	res := <-ready
	if res.Err != nil {
		t.Fatalf("unexpected bind error: %v", res.Err)
	}
	conn := dialSessionHost(t, res.Host)
	defer conn.Close()

	for _, wantPhone := range []string{"first", "second"} {
		if err := wire.WriteFrame(conn, wire.CmdReq, nil); err != nil {
			t.Fatalf("write REQ: %v", err)
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		frame, err := wire.ReadFrame(conn)
		if err != nil {
			t.Fatalf("read pop reply: %v", err)
		}
		if frame.Command != wire.CmdSubmit {
			t.Fatalf("got %v, want SUBMIT", frame.Command)
		}
		var got wire.Submit
		if err := json.Unmarshal(frame.Payload, &got); err != nil {
			t.Fatalf("unmarshal submit: %v", err)
		}
		if got.Phone != wantPhone {
			t.Fatalf("got phone %q, want %q (FIFO order violated)", got.Phone, wantPhone)
		}
	}

	if err := wire.WriteFrame(conn, wire.CmdReq, nil); err != nil {
		t.Fatalf("write REQ: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read empty reply: %v", err)
	}
	if frame.Command != wire.CmdEmpty {
		t.Fatalf("got %v, want EMPTY once the queue is drained", frame.Command)
	}
}

func TestRunConsumerCreatesQueueForUnknownID(t *testing.T) {
	pool := queue.NewPool()
	if _, exists := pool.Find(99); exists {
		t.Fatal("queue 99 should not exist yet")
	}

	ready := make(chan Result, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunConsumer(ctx, Peer{ID: 99, Type: wire.SessionPull}, "127.0.0.1", 20400, 2*time.Second, pool, ready, testLogger())

	<-ready
	if _, exists := pool.Find(99); !exists {
		t.Fatal("consumer session should have created queue 99 on start")
	}
}
