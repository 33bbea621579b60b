// Package routing implements the scheduler's carrier-prefix classification
// and channel-selection policy (lamb spec.md §4.4).
package routing

// Operator bitmask values for Channel.Operator.
const (
	CMCC uint32 = 1 << iota
	CTCC
	CUCC
	MVNO
)

// Channel is a configured downstream gateway link, loaded once per PUSH
// session from the scheduler's routing database. Weight is carried for
// future use; the core dispatch path does no weight-based selection.
type Channel struct {
	ID       uint32
	Acc      uint32
	Weight   uint32
	Operator uint32
	Province uint32
}
