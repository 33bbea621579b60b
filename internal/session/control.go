package session

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/typefo/lamb/internal/wire"
)

// handshakeTimeout bounds how long the control endpoint waits for a
// spawned session worker to bind its port before giving up on replying.
const handshakeTimeout = 3 * time.Second

// Spawn starts a session worker for req and delivers its bind Result on
// ready at most once. It is supplied by the scheduler/mo-broker: TEST
// and PUSH requests spawn a producer, PULL spawns a consumer. For an
// unknown session type it returns without sending, so the handshake
// times out and no reply is sent.
type Spawn func(ctx context.Context, req wire.Request, ready chan<- Result)

// Control is the broker's handshake endpoint: a plain TCP listener where
// each accepted connection carries exactly one Request/Response exchange
// before being closed, mirroring a REQUEST/REPLY socket's one-outstanding-
// request discipline.
type Control struct {
	Listener net.Listener
	Spawn    Spawn
	Log      *logrus.Logger

	// OnHandshakeTimeout, if set, is called whenever a spawned worker
	// fails to bind within handshakeTimeout (SPEC_FULL.md §4.10).
	OnHandshakeTimeout func()
}

// Serve accepts handshake connections until ctx is cancelled or the
// listener is closed. Connections are handled one at a time in this
// loop, which is what gives the broker its "exactly one outstanding
// handshake" property without a separate mutex.
func (c *Control) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.Listener.Close()
	}()

	for {
		conn, err := c.Listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.Log.WithError(err).Warn("control: accept error")
			continue
		}
		c.handshake(ctx, conn)
	}
}

func (c *Control) handshake(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	frame, err := wire.ReadFrame(conn)
	if err != nil {
		c.Log.WithError(err).Debug("control: malformed frame")
		return
	}
	if frame.Command != wire.CmdRequest {
		c.Log.WithField("command", frame.Command).Warn("control: unexpected command")
		return
	}

	var req wire.Request
	if err := json.Unmarshal(frame.Payload, &req); err != nil {
		c.Log.WithError(err).Warn("control: unparseable request payload")
		return
	}
	if req.ID < 1 {
		c.Log.WithField("id", req.ID).Warn("control: invalid peer id")
		return
	}

	ready := make(chan Result, 1)
	go c.Spawn(ctx, req, ready)

	select {
	case res := <-ready:
		if res.Err != nil {
			c.Log.WithError(res.Err).WithField("id", req.ID).Error("control: session worker failed to bind")
			return
		}
		resp := wire.Response{ID: req.ID, Host: res.Host}
		payload, err := json.Marshal(resp)
		if err != nil {
			c.Log.WithError(err).Error("control: failed to encode response")
			return
		}
		if err := wire.WriteFrame(conn, wire.CmdResponse, payload); err != nil {
			c.Log.WithError(err).Warn("control: failed to send response")
		}
	case <-time.After(handshakeTimeout):
		c.Log.WithField("id", req.ID).Warn("control: handshake timed out, worker continues unacknowledged")
		if c.OnHandshakeTimeout != nil {
			c.OnHandshakeTimeout()
		}
	}
}
