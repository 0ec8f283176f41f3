package workers

import (
	"time"
)

// Roles a shop worker can hold. Only tailors can be assigned to orders.
const (
	RoleTailor  = "tailor"
	RoleHelper  = "helper"
	RoleManager = "manager"
)

// Wage models for a worker.
const (
	WagePerGarment = "per_garment"
	WagePerOrder   = "per_order"
	WageMonthly    = "monthly"
)

// Worker represents a shop staff member.
type Worker struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Mobile     string    `json:"mobile"`
	Role       string    `json:"role"`
	Skills     []string  `json:"skills"`
	WageType   string    `json:"wage_type"`
	WageAmount float64   `json:"wage_amount"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Workload carries a worker's derived order counters. The numbers are
// computed from the orders table on read, never stored.
type Workload struct {
	WorkerID        int64 `json:"worker_id"`
	AssignedOrders  int64 `json:"assigned_orders"`
	CompletedOrders int64 `json:"completed_orders"`
}
