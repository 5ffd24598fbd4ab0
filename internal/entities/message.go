package entities

// InboundMessage is the canonical form of one webhook delivery, produced by
// the payload normalizer. Empty fields are allowed; downstream filtering
// decides what counts as noise.
type InboundMessage struct {
	Instance       string // wire-level channel identifier ("instance")
	MessageID      string // provider message id, may be empty (no dedup then)
	Sender         string // phone-like identifier, suffixes stripped
	Text           string
	IsFromSelf     bool
	IsGroup        bool
	EventKind      string // e.g. "messages.upsert", "connection.update"
	DeliveryStatus string // uppercased ack status, e.g. "READ", or empty
}
