package customers

import (
	"time"
)

// Customer represents a shop customer. The three aggregate fields are owned
// by the order ledger; this module only ever reads them.
type Customer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Mobile       string    `json:"mobile"`
	Email        string    `json:"email,omitempty"`
	Address      string    `json:"address,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	TotalOrders  int64     `json:"total_orders"`
	TotalPaid    float64   `json:"total_paid"`
	TotalPending float64   `json:"total_pending"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
