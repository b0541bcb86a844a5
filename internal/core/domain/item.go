package domain

import (
	"math"
	"time"
)

// Item is an inventory record. Quantity changes normally go through the
// movement ledger; direct edits through an item update are also allowed.
type Item struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	CategoryID   string     `json:"categoryId"`
	CategoryName string     `json:"categoryName,omitempty"`
	Unit         string     `json:"unit"`
	Quantity     float64    `json:"quantity"`
	MinQuantity  float64    `json:"minQuantity"`
	MaxQuantity  *float64   `json:"maxQuantity,omitempty"`
	Supplier     string     `json:"supplier,omitempty"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsLowStock reports whether the item sits at or below its reorder threshold.
func (i *Item) IsLowStock() bool {
	return i.Quantity <= i.MinQuantity
}

// ReorderSuggestion is the amount needed to lift the item one unit above its
// threshold, floored at zero.
func (i *Item) ReorderSuggestion() float64 {
	return math.Max(0, i.MinQuantity-i.Quantity+1)
}

// ExpiresWithin reports whether the expiry date falls in [now, now+window].
func (i *Item) ExpiresWithin(now time.Time, window time.Duration) bool {
	if i.ExpiryDate == nil {
		return false
	}
	t := *i.ExpiryDate
	return !t.Before(now) && !t.After(now.Add(window))
}
