package fixmsg

// Side is the FIX side code (tag 54).
type Side string

const (
	SideUnknown Side = ""
	SideBuy     Side = "1"
	SideSell    Side = "2"
)

// OrdType is the FIX order type code (tag 40).
type OrdType string

const (
	OrdTypeUnknown OrdType = ""
	OrdTypeMarket  OrdType = "1"
	OrdTypeLimit   OrdType = "2"
	OrdTypeStop    OrdType = "3"
)

// OrdStatus is the FIX order status code (tag 39).
type OrdStatus string

const (
	OrdStatusNew             OrdStatus = "0"
	OrdStatusPartiallyFilled OrdStatus = "1"
	OrdStatusFilled          OrdStatus = "2"
	OrdStatusDoneForDay      OrdStatus = "3"
	OrdStatusCanceled        OrdStatus = "4"
	OrdStatusPendingCancel   OrdStatus = "6"
	OrdStatusRejected        OrdStatus = "8"
	OrdStatusExpired         OrdStatus = "C"
)

// MDEntryType is the market data entry type (tag 269).
const (
	MDEntryTypeBid = "0"
	MDEntryTypeAsk = "1"
)
