package model

import (
	"strconv"
	"time"
)

// TimeLayout is the fixed storage format for venue timestamps.
// Microsecond precision, always UTC.
const TimeLayout = "2006-01-02 15:04:05.000000"

// TradeRecord is one executed trade, normalized for storage.
// Constructed from a validated inbound trade event; immutable after that.
type TradeRecord struct {
	Symbol    string // Venue ticker (e.g., "BTCUSDT")
	TradeID   string // Venue-assigned trade ID (unique per symbol only)
	Price     string // Exact decimal string from the venue
	Quantity  string // Exact decimal string from the venue
	BidID     string // Buyer order ID
	AskID     string // Seller order ID
	EventTime string // Venue emission time, TimeLayout format
	TradeTime string // Match time, TimeLayout format
	Maker     bool   // True if the buyer posted the resting order
}

// FormatTimestamp converts a venue millisecond epoch to the fixed
// storage format.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(TimeLayout)
}

// NewTradeRecord builds a TradeRecord from a validated trade event,
// converting the millisecond epochs to storage timestamps.
func NewTradeRecord(ev *TradeEvent) TradeRecord {
	return TradeRecord{
		Symbol:    ev.Symbol,
		TradeID:   strconv.FormatInt(ev.TradeID, 10),
		Price:     ev.Price,
		Quantity:  ev.Quantity,
		BidID:     strconv.FormatInt(ev.BuyerOrderID, 10),
		AskID:     strconv.FormatInt(ev.SellerOrderID, 10),
		EventTime: FormatTimestamp(ev.EventTime),
		TradeTime: FormatTimestamp(ev.TradeTime),
		Maker:     ev.IsBuyerMaker,
	}
}
