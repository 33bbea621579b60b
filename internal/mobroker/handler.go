// Package mobroker implements the broker that routes delivery receipts
// and MO messages to customer clients (spec.md §4.2, §4.3).
package mobroker

import (
	"encoding/json"
	"fmt"

	"github.com/typefo/lamb/internal/queue"
	"github.com/typefo/lamb/internal/wire"
)

// PushHandler implements session.ProducerHandler for a mo-broker PUSH or
// TEST session: REPORT and DELIVER frames are pushed, unacknowledged, into
// the queue keyed by the record's own Account field (spec.md §4.2).
type PushHandler struct {
	pool *queue.Pool
}

// NewPushHandler returns a handler that enqueues reports and delivers
// by account id.
func NewPushHandler(pool *queue.Pool) *PushHandler {
	return &PushHandler{pool: pool}
}

func (h *PushHandler) Accepts() []wire.Command {
	return []wire.Command{wire.CmdReport, wire.CmdDeliver}
}

func (h *PushHandler) Handle(cmd wire.Command, payload []byte) (wire.Command, bool, error) {
	switch cmd {
	case wire.CmdReport:
		var report wire.Report
		if err := json.Unmarshal(payload, &report); err != nil {
			return 0, false, fmt.Errorf("mobroker: unparseable REPORT: %w", err)
		}
		h.pool.FindOrCreate(report.Account).Push(&queue.Item{Kind: queue.KindReport, Report: &report})
	case wire.CmdDeliver:
		var deliver wire.Deliver
		if err := json.Unmarshal(payload, &deliver); err != nil {
			return 0, false, fmt.Errorf("mobroker: unparseable DELIVER: %w", err)
		}
		h.pool.FindOrCreate(deliver.Account).Push(&queue.Item{Kind: queue.KindDeliver, Deliver: &deliver})
	}

	// Pushes are unacknowledged on the mo-broker PUSH session (spec.md §4.2).
	return 0, false, nil
}
