package ledger

import (
	"time"

	"github.com/quantbridge/fix-client-core/internal/fixmsg"
)

// ExecutionReport is the immutable record of one inbound status update.
// Reports are appended to the execution history and never mutated.
type ExecutionReport struct {
	ClOrdID      int
	Symbol       string
	Side         fixmsg.Side
	Price        float64
	OrdType      fixmsg.OrdType
	Status       fixmsg.OrdStatus
	OrderQty     int
	MinQty       int
	CumQty       int
	LeavesQty    int
	TransactTime time.Time
}
