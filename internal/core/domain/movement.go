package domain

import "time"

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// Valid reports whether t is a known direction.
func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut
}

// Delta returns the signed quantity change a movement of this type applies.
func (t MovementType) Delta(quantity float64) float64 {
	if t == MovementOut {
		return -quantity
	}
	return quantity
}

// Movement is an immutable ledger entry. ItemName and ItemUnit are filled by
// read-time joins and are not stored on the movement itself.
type Movement struct {
	ID        string       `json:"id"`
	ItemID    string       `json:"itemId"`
	ItemName  string       `json:"itemName,omitempty"`
	ItemUnit  string       `json:"itemUnit,omitempty"`
	Type      MovementType `json:"type"`
	Quantity  float64      `json:"quantity"`
	Reason    string       `json:"reason,omitempty"`
	CreatedBy string       `json:"createdBy,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}
