package fixmsg

import (
	"strconv"
	"time"
)

// FIX 4.4 tag numbers used by the client.
const (
	TagAccount            = 1
	TagClOrdID            = 11
	TagCumQty             = 14
	TagQuoteEntryID       = 299
	TagQuoteSetID         = 302
	TagQuoteID            = 117
	TagNoQuoteSets        = 296
	TagBidSize            = 134
	TagOfferSize          = 135
	TagBidSpotRate        = 188
	TagOfferSpotRate      = 190
	TagLeavesQty          = 151
	TagMDEntryType        = 269
	TagMDEntryPx          = 270
	TagMDEntrySize        = 271
	TagMDReqID            = 262
	TagSubscriptionReqTyp = 263
	TagMarketDepth        = 264
	TagMDUpdateType       = 265
	TagNoMDEntries        = 268
	TagMinQty             = 110
	TagNoRelatedSym       = 146
	TagOrdStatus          = 39
	TagOrdType            = 40
	TagOrderQty           = 38
	TagPrice              = 44
	TagSendingTime        = 52
	TagSide               = 54
	TagSymbol             = 55
	TagText               = 58
	TagTransactTime       = 60
	TagTTLMillis          = 10000
	TagDeviation          = 10001
)

// TimestampLayout is the FIX UTC timestamp format with milliseconds.
const TimestampLayout = "20060102-15:04:05.000"

// FieldMap is a flat tag -> raw value lookup for one message or one
// repeating-group entry. Absent and malformed numeric fields both read as
// not-ok so callers can treat them uniformly as "no value".
type FieldMap map[int]string

// String returns the raw value of a tag.
func (f FieldMap) String(tag int) (string, bool) {
	v, ok := f[tag]
	return v, ok
}

// Int parses a tag as an integer.
func (f FieldMap) Int(tag int) (int, bool) {
	v, ok := f[tag]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float parses a tag as a float64.
func (f FieldMap) Float(tag int) (float64, bool) {
	v, ok := f[tag]
	if !ok {
		return 0, false
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return x, true
}

// Time parses a tag as a FIX UTC timestamp.
func (f FieldMap) Time(tag int) (time.Time, bool) {
	v, ok := f[tag]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Set stores a raw value.
func (f FieldMap) Set(tag int, v string) FieldMap {
	f[tag] = v
	return f
}

// SetInt stores an integer value.
func (f FieldMap) SetInt(tag, v int) FieldMap {
	return f.Set(tag, strconv.Itoa(v))
}

// SetFloat stores a float value with full precision.
func (f FieldMap) SetFloat(tag int, v float64) FieldMap {
	return f.Set(tag, strconv.FormatFloat(v, 'f', -1, 64))
}

// SetTime stores a FIX UTC timestamp.
func (f FieldMap) SetTime(tag int, t time.Time) FieldMap {
	return f.Set(tag, t.UTC().Format(TimestampLayout))
}
