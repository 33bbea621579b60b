package session

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/typefo/lamb/internal/portalloc"
	"github.com/typefo/lamb/internal/wire"
)

// RunProducer binds a fresh per-session endpoint, reports it on ready,
// then services one peer connection: submissions/reports/delivers are
// handed to handler, BYE or a transport error ends the session, and a
// receive-timeout with the peer still connected just loops (spec.md
// §4.2).
func RunProducer(ctx context.Context, peer Peer, listenHost string, startPort int, timeout time.Duration, handler ProducerHandler, ready chan<- Result, log *logrus.Logger) {
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
		log.WithError(err).WithField("id", peer.ID).Warn("producer: accept failed")
		return
	}
	defer conn.Close()

	log.WithFields(logrus.Fields{"id": peer.ID, "addr": peer.Addr}).Info("producer: session connected")

	accepted := make(map[wire.Command]bool, len(handler.Accepts()))
	for _, cmd := range handler.Accepts() {
		accepted[cmd] = true
	}

	r := bufio.NewReader(conn)
	for {
		conn.SetReadDeadline(time.Now().Add(timeout))
		frame, err := wire.ReadFrameBuf(r)
		if err != nil {
			if isTimeout(err) {
				if stillConnected(conn, r) {
					continue
				}
				log.WithField("id", peer.ID).Debug("producer: idle peer gone, closing session")
				return
			}
			log.WithError(err).WithField("id", peer.ID).Debug("producer: session ended")
			return
		}

		if frame.Command == wire.CmdBye {
			log.WithField("id", peer.ID).Info("producer: peer said BYE")
			return
		}

		if !accepted[frame.Command] {
			log.WithFields(logrus.Fields{"id": peer.ID, "command": frame.Command}).Warn("producer: discarding unexpected command")
			continue
		}

		ack, sendAck, err := handler.Handle(frame.Command, frame.Payload)
		if err != nil {
			log.WithError(err).WithField("id", peer.ID).Warn("producer: handler error, discarding frame")
			continue
		}
		if sendAck {
			if err := wire.WriteFrame(conn, ack, nil); err != nil {
				log.WithError(err).WithField("id", peer.ID).Debug("producer: ack send failed, session ending")
				return
			}
		}
	}
}
