package queue

import (
	"encoding/json"
	"fmt"

	"github.com/typefo/lamb/internal/wire"
)

// Kind tags which variant an Item carries, replacing the dynamic
// dispatch a void* would otherwise need.
type Kind int

const (
	KindSubmit Kind = iota + 1
	KindReport
	KindDeliver
)

// Item is a pool-owned queue entry. Exactly one of Submit, Report, or
// Deliver is set, selected by Kind. Items are heap-owned by the pool
// until popped; popping transfers ownership to the consumer worker.
type Item struct {
	Kind    Kind
	Submit  *wire.Submit
	Report  *wire.Report
	Deliver *wire.Deliver
}

// Encode serializes the item for wire transmission to a consumer, per
// its tag.
func (it *Item) Encode() (wire.Command, []byte, error) {
	switch it.Kind {
	case KindSubmit:
		payload, err := json.Marshal(it.Submit)
		return wire.CmdSubmit, payload, err
	case KindReport:
		payload, err := json.Marshal(it.Report)
		return wire.CmdReport, payload, err
	case KindDeliver:
		payload, err := json.Marshal(it.Deliver)
		return wire.CmdDeliver, payload, err
	default:
		return 0, nil, fmt.Errorf("queue: item has no recognized kind: %d", it.Kind)
	}
}
