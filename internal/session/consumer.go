package session

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/typefo/lamb/internal/portalloc"
	"github.com/typefo/lamb/internal/queue"
	"github.com/typefo/lamb/internal/wire"
)

// RunConsumer binds a fresh per-session endpoint, reports it on ready,
// then services pop requests from one peer against the queue keyed by
// peer.ID, creating that queue if it doesn't exist yet (spec.md §4.3).
func RunConsumer(ctx context.Context, peer Peer, listenHost string, startPort int, timeout time.Duration, pool *queue.Pool, ready chan<- Result, log *logrus.Logger) {
	q := pool.FindOrCreate(peer.ID)

	ln, port, err := portalloc.Allocate(listenHost, startPort)
	if err != nil {
		ready <- Result{Err: err}
		return
	}
	defer ln.Close()

	host := fmt.Sprintf("tcp://%s:%d", listenHost, port)
	ready <- Result{Host: host}

	conn, err := ln.Accept()
	if err != nil {
		log.WithError(err).WithField("id", peer.ID).Warn("consumer: accept failed")
		return
	}
	defer conn.Close()

	log.WithFields(logrus.Fields{"id": peer.ID, "addr": peer.Addr}).Info("consumer: session connected")

	r := bufio.NewReader(conn)
	for {
		conn.SetReadDeadline(time.Now().Add(timeout))
		frame, err := wire.ReadFrameBuf(r)
		if err != nil {
			if isTimeout(err) {
				if stillConnected(conn, r) {
					continue
				}
				log.WithField("id", peer.ID).Debug("consumer: idle peer gone, closing session")
				return
			}
			log.WithError(err).WithField("id", peer.ID).Debug("consumer: session ended")
			return
		}

		switch frame.Command {
		case wire.CmdReq:
			item, ok := q.Pop()
			if !ok {
				if err := wire.WriteFrame(conn, wire.CmdEmpty, nil); err != nil {
					log.WithError(err).WithField("id", peer.ID).Debug("consumer: empty-reply send failed")
					return
				}
				continue
			}

			cmd, payload, err := item.Encode()
			if err != nil {
				log.WithError(err).WithField("id", peer.ID).Error("consumer: failed to encode popped item")
				continue
			}
			if err := wire.WriteFrame(conn, cmd, payload); err != nil {
				log.WithError(err).WithField("id", peer.ID).Debug("consumer: send failed, session ending")
				return
			}
		case wire.CmdBye:
			log.WithField("id", peer.ID).Info("consumer: peer said BYE")
			return
		default:
			log.WithFields(logrus.Fields{"id": peer.ID, "command": frame.Command}).Warn("consumer: discarding unexpected command")
		}
	}
}
