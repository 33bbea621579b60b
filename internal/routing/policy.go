package routing

// CapacityThreshold is the backpressure depth at or above which a
// channel's queue is treated as full.
const CapacityThreshold = 128

// Outcome is the result of a routing decision for one submission.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNoRoute
	OutcomeReject
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeNoRoute:
		return "NOROUTE"
	case OutcomeReject:
		return "REJECT"
	case OutcomeBusy:
		return "BUSY"
	default:
		return "UNKNOWN"
	}
}

// DepthLookup reports a gateway channel's current queue depth. exists is
// false if no queue has been created for that channel id yet.
type DepthLookup func(channelID uint32) (depth int, exists bool)

// Decide selects the target channel for phone among channels, in their
// loaded order, applying the operator/province/capacity checks of
// spec.md §4.4. It returns the outcome and, for OutcomeOK, the id of the
// channel selected; the caller is responsible for actually pushing the
// submission into that channel's queue — Decide makes no pool mutation.
//
// This is a pure function of (phone, channels, depth snapshot): given the
// same inputs it always returns the same outcome.
func Decide(phone string, channels []Channel, depth DepthLookup) (outcome Outcome, channelID uint32) {
	if len(channels) == 0 {
		return OutcomeNoRoute, 0
	}

	matchedOperator := false

	for _, ch := range channels {
		if !CheckOperator(ch, phone) {
			continue
		}
		if !CheckProvince(ch, phone) {
			continue
		}
		matchedOperator = true

		d, exists := depth(ch.ID)
		if !exists || d >= CapacityThreshold {
			continue
		}

		return OutcomeOK, ch.ID
	}

	if !matchedOperator {
		return OutcomeReject, 0
	}
	return OutcomeBusy, 0
}
