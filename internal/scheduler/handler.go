// Package scheduler implements the broker that routes MT submissions to
// gateway channel queues (spec.md §4.2, §4.4) and serves them to
// consumer gateways over PULL sessions (§4.3).
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/typefo/lamb/internal/queue"
	"github.com/typefo/lamb/internal/routing"
	"github.com/typefo/lamb/internal/wire"
)

// ChannelLoader returns a peer account's ordered gateway channel list,
// queried once at session start (spec.md §6). A non-nil error is
// treated exactly like an empty list: every submission on that session
// degrades to NOROUTE rather than tearing down the session.
type ChannelLoader func(ctx context.Context, account uint32) ([]routing.Channel, error)

// PushHandler implements session.ProducerHandler for a scheduler PUSH
// session: each SUBMIT is routed against the peer's channel list and,
// on a match, pushed into that channel's queue (spec.md §4.2, §4.4).
type PushHandler struct {
	pool      *queue.Pool
	channels  []routing.Channel
	onOutcome func(routing.Outcome)

	mu sync.Mutex // serializes concurrent Handle calls from the same session
}

// NewPushHandler loads the peer's channel list once (errors degrade to
// an empty list per spec.md §6) and returns a handler ready to route
// submissions against it. onOutcome, if non-nil, is called with every
// routing decision for internal metrics (SPEC_FULL.md §4.10).
func NewPushHandler(ctx context.Context, pool *queue.Pool, account uint32, load ChannelLoader, onOutcome func(routing.Outcome)) *PushHandler {
	channels, err := load(ctx, account)
	if err != nil {
		channels = nil
	}
	return &PushHandler{pool: pool, channels: channels, onOutcome: onOutcome}
}

func (h *PushHandler) Accepts() []wire.Command { return []wire.Command{wire.CmdSubmit} }

func (h *PushHandler) Handle(cmd wire.Command, payload []byte) (wire.Command, bool, error) {
	var submit wire.Submit
	if err := json.Unmarshal(payload, &submit); err != nil {
		return 0, false, fmt.Errorf("scheduler: unparseable SUBMIT: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	outcome, channelID := routing.Decide(submit.Phone, h.channels, h.depthLookup)
	if h.onOutcome != nil {
		h.onOutcome(outcome)
	}
	if outcome != routing.OutcomeOK {
		return outcomeCommand(outcome), true, nil
	}

	h.pool.FindOrCreate(channelID).Push(&queue.Item{Kind: queue.KindSubmit, Submit: &submit})
	return wire.CmdOK, true, nil
}

func (h *PushHandler) depthLookup(channelID uint32) (int, bool) {
	return h.pool.Depth(channelID)
}

func outcomeCommand(o routing.Outcome) wire.Command {
	switch o {
	case routing.OutcomeOK:
		return wire.CmdOK
	case routing.OutcomeNoRoute:
		return wire.CmdNoRoute
	case routing.OutcomeReject:
		return wire.CmdReject
	case routing.OutcomeBusy:
		return wire.CmdBusy
	default:
		return wire.CmdReject
	}
}

// TestHandler implements session.ProducerHandler for a scheduler TEST
// session: each MESSAGE names its target gateway channel directly,
// bypassing routing policy entirely (spec.md §4.2).
type TestHandler struct {
	pool *queue.Pool
}

// NewTestHandler returns a handler that injects MESSAGE frames straight
// into the named channel's queue.
func NewTestHandler(pool *queue.Pool) *TestHandler {
	return &TestHandler{pool: pool}
}

func (h *TestHandler) Accepts() []wire.Command { return []wire.Command{wire.CmdMessage} }

func (h *TestHandler) Handle(cmd wire.Command, payload []byte) (wire.Command, bool, error) {
	var msg wire.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return 0, false, fmt.Errorf("scheduler: unparseable MESSAGE: %w", err)
	}

	q, exists := h.pool.Find(msg.Channel)
	if !exists {
		return wire.CmdNoRoute, true, nil
	}

	submit := wire.Submit{
		ID: msg.ID, Spid: msg.Spid, Spcode: msg.Spcode, Phone: msg.Phone,
		Msgfmt: msg.Msgfmt, Length: msg.Length, Content: msg.Content,
	}
	q.Push(&queue.Item{Kind: queue.KindSubmit, Submit: &submit})
	return wire.CmdOK, true, nil
}
