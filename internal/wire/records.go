package wire

// Request is the handshake frame a peer sends to the control endpoint.
// Id identifies the peer (customer account or gateway channel); Type
// declares the session direction; Addr is informational, logged but
// otherwise unused.
type Request struct {
	ID   uint32      `json:"id"`
	Type SessionType `json:"type"`
	Addr string      `json:"addr"`
}

// Response carries the freshly bound per-session endpoint address back
// to the peer that sent a Request.
type Response struct {
	ID   uint32 `json:"id"`
	Host string `json:"host"`
}

// Submit is a scheduler-bound MT (mobile-terminated) message.
type Submit struct {
	ID      uint64 `json:"id"`
	Account uint32 `json:"account"`
	Company uint32 `json:"company"`
	Spid    string `json:"spid"`
	Spcode  string `json:"spcode"`
	Phone   string `json:"phone"`
	Msgfmt  uint8  `json:"msgfmt"`
	Length  uint8  `json:"length"`
	Content []byte `json:"content"`
}

// Message is the scheduler TEST-session diagnostic injection record: it
// names a target gateway channel directly, bypassing routing policy.
type Message struct {
	ID      uint64 `json:"id"`
	Channel uint32 `json:"channel"`
	Spid    string `json:"spid"`
	Spcode  string `json:"spcode"`
	Phone   string `json:"phone"`
	Msgfmt  uint8  `json:"msgfmt"`
	Length  uint8  `json:"length"`
	Content []byte `json:"content"`
}

// Report is a delivery receipt for a prior MT, mo-broker bound.
type Report struct {
	ID         uint64 `json:"id"`
	Account    uint32 `json:"account"`
	Company    uint32 `json:"company"`
	Spcode     string `json:"spcode"`
	Phone      string `json:"phone"`
	Status     uint32 `json:"status"`
	Submittime string `json:"submittime"`
	Donetime   string `json:"donetime"`
}

// Deliver is an MO (mobile-originated) message, mo-broker bound.
type Deliver struct {
	ID        uint64 `json:"id"`
	Account   uint32 `json:"account"`
	Company   uint32 `json:"company"`
	Phone     string `json:"phone"`
	Spcode    string `json:"spcode"`
	Serviceid string `json:"serviceid"`
	Msgfmt    uint8  `json:"msgfmt"`
	Length    uint8  `json:"length"`
	Content   []byte `json:"content"`
}
