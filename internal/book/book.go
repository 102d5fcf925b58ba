package book

import (
	"time"
)

// Fragment is one depth-level quote fragment. Fields at or below zero are
// treated as absent: fragments are cumulative per depth and a missing side
// must never clear the previously merged value. A genuinely negative price
// (oil in 2020) is indistinguishable from absent under this contract; that is
// a known fidelity gap carried over from the wire format, not silently fixed.
type Fragment struct {
	Bid     float64
	Ask     float64
	BidSize int
	AskSize int
}

func (f Fragment) empty() bool {
	return f.Bid <= 0 && f.Ask <= 0 && f.BidSize <= 0 && f.AskSize <= 0
}

// Level is one depth slot of the order book. Zero fields have not been
// populated yet.
type Level struct {
	Bid     float64
	Ask     float64
	BidSize int
	AskSize int
}

// Tick is one accepted book update carrying the fully merged slot values at
// the updated depth, not just the fragment that arrived.
type Tick struct {
	Time    time.Time
	Depth   int
	Bid     float64
	Ask     float64
	BidSize int
	AskSize int
}

// TOBTick records a change of the top-of-book values.
type TOBTick struct {
	Time time.Time
	Bid  float64
	Ask  float64
}

// Book holds the merged order book and tick history for one symbol. It is
// created on first subscription and lives for the process lifetime; all
// mutation happens through the Aggregator under the engine's serialization.
type Book struct {
	Symbol string
	Levels []Level

	// BidTOB/AskTOB are the values last seen at the lowest depth index ever
	// populated for this symbol.
	BidTOB float64
	AskTOB float64

	Ticks    []Tick
	TOBTicks []TOBTick

	lowestDepth     int
	lastFlushMinute int
}

func newBook(symbol string) *Book {
	return &Book{
		Symbol:          symbol,
		lowestDepth:     -1,
		lastFlushMinute: -1,
	}
}

// LowestDepth returns the lowest depth index seen so far, or -1 before the
// first accepted update.
func (b *Book) LowestDepth() int {
	return b.lowestDepth
}

// Level returns the merged slot at the given depth index.
func (b *Book) Level(depth int) (Level, bool) {
	if depth < 0 || depth >= len(b.Levels) {
		return Level{}, false
	}
	return b.Levels[depth], true
}

// apply merges one fragment and reports the slot index written plus whether
// the top-of-book changed. Callers must have validated the fragment.
func (b *Book) apply(depth int, frag Fragment) (slot int, tobChanged bool) {
	if depth < b.lowestDepth || b.lowestDepth == -1 {
		b.lowestDepth = depth
	}

	if depth == b.lowestDepth {
		if frag.Bid > 0 {
			b.BidTOB = frag.Bid
			tobChanged = true
		}
		if frag.Ask > 0 {
			b.AskTOB = frag.Ask
			tobChanged = true
		}
	}

	// Sparse updates extend the sequence to its first gap instead of
	// allocating intermediate slots.
	if depth >= len(b.Levels) {
		b.Levels = append(b.Levels, Level{})
		slot = len(b.Levels) - 1
	} else {
		slot = depth
	}

	lvl := &b.Levels[slot]
	if frag.Bid > 0 {
		lvl.Bid = frag.Bid
	}
	if frag.Ask > 0 {
		lvl.Ask = frag.Ask
	}
	if frag.BidSize > 0 {
		lvl.BidSize = frag.BidSize
	}
	if frag.AskSize > 0 {
		lvl.AskSize = frag.AskSize
	}
	return slot, tobChanged
}
