package model

import "strings"

// ProductID identifies a tradable instrument, e.g. "BTC-USD".
// The named type keeps arbitrary strings from silently becoming
// product keys.
type ProductID string

func (p ProductID) String() string { return string(p) }

// Base returns the base currency of the product ("BTC" for "BTC-USD").
// Returns the whole ID if the product has no dash separator.
func (p ProductID) Base() string {
	if i := strings.IndexByte(string(p), '-'); i > 0 {
		return string(p)[:i]
	}
	return string(p)
}

// Quote returns the quote currency of the product ("USD" for "BTC-USD").
func (p ProductID) Quote() string {
	if i := strings.IndexByte(string(p), '-'); i >= 0 && i+1 < len(p) {
		return string(p)[i+1:]
	}
	return ""
}
