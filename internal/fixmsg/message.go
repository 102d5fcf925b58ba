package fixmsg

// Kind identifies a decoded FIX message type (tag 35 value).
type Kind string

// Message kinds handled by the dispatch engine.
const (
	KindMassQuote               Kind = "i"
	KindMassQuoteAck            Kind = "b"
	KindSnapshotFullRefresh     Kind = "W"
	KindIncrementalRefresh      Kind = "X"
	KindExecutionReport         Kind = "8"
	KindOrderCancelReject       Kind = "9"
	KindTradingSessionStatus    Kind = "h"
	KindMarketDataRequest       Kind = "V"
	KindMarketDataRequestReject Kind = "Y"
	KindNewOrderSingle          Kind = "D"
)

// Message is one decoded FIX message: a kind tag, a flat field map and
// optional repeating-group entries in wire order. The session layer delivers
// inbound messages in this form; outbound messages are composed the same way
// and handed back to the transport for encoding.
type Message struct {
	Kind   Kind
	Fields FieldMap
	Groups []FieldMap
}

// New creates an empty message of the given kind.
func New(kind Kind) *Message {
	return &Message{Kind: kind, Fields: FieldMap{}}
}

// AddGroup appends one repeating-group entry.
func (m *Message) AddGroup(g FieldMap) *Message {
	m.Groups = append(m.Groups, g)
	return m
}

// GroupCount returns the number of repeating-group entries.
func (m *Message) GroupCount() int {
	return len(m.Groups)
}

// Group returns the repeating-group entry at index i (0-based).
func (m *Message) Group(i int) FieldMap {
	return m.Groups[i]
}
