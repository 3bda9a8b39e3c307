package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// ReasonMaxReconnect is the terminal error reason emitted by the streaming
// transport when its internal reconnect budget is exhausted. The supervisor
// reacts to it by tearing down and recreating the subscription.
const ReasonMaxReconnect = "Max reconnect retries reached"

var (
	ErrEmptyFrame   = errors.New("empty frame")
	ErrUnknownEvent = errors.New("unknown event type")
)

// TradeEvent is the wire format of a venue trade frame.
//
// Numeric price and quantity arrive as strings and stay strings to
// preserve venue precision. The trailing "M" field is venue-internal
// and decoded only to be ignored.
type TradeEvent struct {
	EventType     string `json:"e" validate:"required,eq=trade"`
	EventTime     int64  `json:"E" validate:"required,gt=0"`
	Symbol        string `json:"s" validate:"required"`
	TradeID       int64  `json:"t" validate:"required,gt=0"`
	Price         string `json:"p" validate:"required,numeric"`
	Quantity      string `json:"q" validate:"required,numeric"`
	BuyerOrderID  int64  `json:"b"`
	SellerOrderID int64  `json:"a"`
	TradeTime     int64  `json:"T" validate:"required,gt=0"`
	IsBuyerMaker  bool   `json:"m"`
	Ignore        bool   `json:"M"`
}

// ErrorFrame is the wire format of a venue error envelope.
type ErrorFrame struct {
	EventType string `json:"e"`
	Reason    string `json:"m"`
}

// Terminal reports whether this frame is the transport's terminal
// reconnect signal.
func (f *ErrorFrame) Terminal() bool {
	return f.Reason == ReasonMaxReconnect
}

// Message is the tagged inbound variant delivered to the supervisor:
// exactly one of Trade or Err is set.
type Message struct {
	Trade *TradeEvent
	Err   *ErrorFrame
}

// envelope extracts the event type before the full decode.
type envelope struct {
	EventType string `json:"e"`
}

// Parser decodes and validates raw stream frames into Messages.
type Parser struct {
	validate *validator.Validate
}

// NewParser creates a frame parser.
func NewParser() *Parser {
	return &Parser{validate: validator.New()}
}

// Parse decodes a raw frame into a tagged Message. Malformed frames,
// unknown event types, and trade events that fail validation are all
// rejected with an error so the stream boundary can drop them.
func (p *Parser) Parse(data []byte) (Message, error) {
	if len(data) == 0 {
		return Message{}, ErrEmptyFrame
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.EventType {
	case "error":
		var frame ErrorFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			return Message{}, fmt.Errorf("decode error frame: %w", err)
		}
		return Message{Err: &frame}, nil

	case "trade":
		var ev TradeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return Message{}, fmt.Errorf("decode trade event: %w", err)
		}
		if err := p.validate.Struct(&ev); err != nil {
			return Message{}, fmt.Errorf("validate trade event: %w", err)
		}
		// Strings that pass the numeric tag can still overflow or carry
		// exponents the storage schema does not expect.
		if _, err := decimal.NewFromString(ev.Price); err != nil {
			return Message{}, fmt.Errorf("parse price %q: %w", ev.Price, err)
		}
		if _, err := decimal.NewFromString(ev.Quantity); err != nil {
			return Message{}, fmt.Errorf("parse quantity %q: %w", ev.Quantity, err)
		}
		return Message{Trade: &ev}, nil

	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.EventType)
	}
}
