package routing

// Carrier prefix sets, authoritative per spec.md §4.4.
var cmccPrefixes = prefixSet(
	"134", "135", "136", "137", "138", "139", "147", "150",
	"151", "152", "157", "158", "159", "178", "182", "183",
	"184", "187", "188", "198",
)

var ctccPrefixes = prefixSet(
	"133", "149", "153", "173", "177", "180", "181", "189", "199",
)

var cuccPrefixes = prefixSet(
	"130", "131", "132", "155", "156", "145", "175", "176", "185", "186", "166",
)

func prefixSet(prefixes ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		set[p] = struct{}{}
	}
	return set
}

// CheckOperator reports whether phone is routable through channel under
// the operator capability mask. The phone's 3-digit prefix classifies it
// to at most one carrier; if that carrier's bit is set on the channel,
// the channel passes. Otherwise (including when the prefix matches no
// known carrier at all) the channel still passes if it carries the MVNO
// fallback bit.
func CheckOperator(channel Channel, phone string) bool {
	if len(phone) >= 3 {
		prefix := phone[:3]
		if _, ok := cmccPrefixes[prefix]; ok && channel.Operator&CMCC != 0 {
			return true
		}
		if _, ok := ctccPrefixes[prefix]; ok && channel.Operator&CTCC != 0 {
			return true
		}
		if _, ok := cuccPrefixes[prefix]; ok && channel.Operator&CUCC != 0 {
			return true
		}
	}

	return channel.Operator&MVNO != 0
}

// CheckProvince is reserved for future geography rules; it is currently
// always true, so province never disqualifies a channel. Preserve the
// field on Channel, but treat this as inert until specified.
func CheckProvince(channel Channel, phone string) bool {
	return true
}
