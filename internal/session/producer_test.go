package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/typefo/lamb/internal/wire"
)

type recordingHandler struct {
	accepts []wire.Command
	handled []wire.Command
	ack     wire.Command
	sendAck bool
	err     error
}

func (h *recordingHandler) Accepts() []wire.Command { return h.accepts }

func (h *recordingHandler) Handle(cmd wire.Command, payload []byte) (wire.Command, bool, error) {
	h.handled = append(h.handled, cmd)
	return h.ack, h.sendAck, h.err
}

func TestRunProducerHandlesAcceptedFrameAndAcks(t *testing.T) {
	handler := &recordingHandler{accepts: []wire.Command{wire.CmdSubmit}, ack: wire.CmdOK, sendAck: true}
	ready := make(chan Result, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go RunProducer(ctx, Peer{ID: 1, Type: wire.SessionPush}, "127.0.0.1", 20000, 2*time.Second, handler, ready, testLogger())

	res := <-ready
	if res.Err != nil {
		t.Fatalf("unexpected bind error: %v", res.Err)
	}

	conn := dialSessionHost(t, res.Host)
	defer conn.Close()

	if err := wire.WriteFrame(conn, wire.CmdSubmit, []byte(`{}`)); err != nil {
		t.Fatalf("write submit: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	frame, err := wire.ReadFrame(conn)
	if err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if frame.Command != wire.CmdOK {
		t.Fatalf("got %v, want OK", frame.Command)
	}
	if len(handler.handled) != 1 || handler.handled[0] != wire.CmdSubmit {
		t.Fatalf("handler did not see the submitted frame: %v", handler.handled)
	}
}

func TestRunProducerDiscardsUnacceptedCommand(t *testing.T) {
	handler := &recordingHandler{accepts: []wire.Command{wire.CmdSubmit}}
	ready := make(chan Result, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go RunProducer(ctx, Peer{ID: 2, Type: wire.SessionPush}, "127.0.0.1", 20100, 2*time.Second, handler, ready, testLogger())

	res := <-ready
	conn := dialSessionHost(t, res.Host)
	defer conn.Close()

	if err := wire.WriteFrame(conn, wire.CmdMessage, []byte(`{}`)); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if err := wire.WriteFrame(conn, wire.CmdBye, nil); err != nil {
		t.Fatalf("write bye: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if len(handler.handled) != 0 {
		t.Fatalf("handler should not have seen an unaccepted command: %v", handler.handled)
	}
}

func TestRunProducerEndsOnBye(t *testing.T) {
	handler := &recordingHandler{accepts: []wire.Command{wire.CmdSubmit}}
	ready := make(chan Result, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		RunProducer(ctx, Peer{ID: 3, Type: wire.SessionPush}, "127.0.0.1", 20200, 2*time.Second, handler, ready, testLogger())
		close(done)
	}()

	res := <-ready
	conn := dialSessionHost(t, res.Host)

	if err := wire.WriteFrame(conn, wire.CmdBye, nil); err != nil {
		t.Fatalf("write bye: %v", err)
	}
	conn.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer session did not end after BYE")
	}
}

func dialSessionHost(t *testing.T, host string) net.Conn {
	t.Helper()
	addr := host
	if len(host) > len("tcp://") && host[:len("tcp://")] == "tcp://" {
		addr = host[len("tcp://"):]
	}
	var conn net.Conn
	var err error
	for i := 0; i < 20; i++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			return conn
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatalf("dial %s: %v", addr, err)
	return nil
}
