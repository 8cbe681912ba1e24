package model

import (
	"encoding/json"
	"time"
)

// SignalType is the direction of a trade signal.
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
)

// Signal is a trade signal emitted by a strategy after crossover detection
// and movement filtering.
type Signal struct {
	Type       SignalType         `json:"type"`
	Strategy   string             `json:"strategy"`
	Product    ProductID          `json:"product_id"`
	Price      float64            `json:"price"`
	Indicators map[string]float64 `json:"indicators"` // snapshot at emission time
	TS         time.Time          `json:"ts"`
	Reason     string             `json:"reason"`
	Confidence float64            `json:"confidence"` // 0-100
}

// JSON returns the JSON-encoded signal (ignoring errors for hot-path usage).
func (s *Signal) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}

// Crossover is a low-weight visualization event emitted on every accepted
// crossover, whether or not a trade signal followed it.
type Crossover struct {
	Type     SignalType `json:"type"`
	Strategy string     `json:"strategy"`
	Product  ProductID  `json:"product_id"`
	Price    float64    `json:"price"`
	Value    float64    `json:"value"` // indicator value at the cross
	TS       time.Time  `json:"ts"`
}

// JSON returns the JSON-encoded crossover event.
func (c *Crossover) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}
