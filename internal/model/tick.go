package model

import "time"

// Tick represents a single market data event from the price feed.
type Tick struct {
	Product ProductID `json:"product_id"`
	Price   float64   `json:"price"`
	Volume  float64   `json:"volume,omitempty"` // last traded size, 0 if feed omits it
	TS      time.Time `json:"ts"`               // UTC timestamp
}
