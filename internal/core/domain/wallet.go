package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCurrency is used when a wallet is opened at first login.
const DefaultCurrency = "KES"

// Wallet holds the spendable balance of one session owner.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"` // session id
	Currency  string    `json:"currency"`
	Balance   int64     `json:"balance"` // In smallest unit
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanAfford reports whether the balance covers amount.
func (w *Wallet) CanAfford(amount int64) bool {
	return w.Balance >= amount
}
