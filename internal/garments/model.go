package garments

import (
	"time"
)

// GarmentType is a catalog entry the order wizard offers, e.g. shirt or
// blouse, along with the measurement fields the shop records for it.
type GarmentType struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	BasePrice    float64   `json:"base_price"`
	Measurements []string  `json:"measurements"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Subtype is a styling option group for a garment type, e.g. collar style
// with its selectable options.
type Subtype struct {
	ID            int64    `json:"id"`
	GarmentTypeID int64    `json:"garment_type_id"`
	Name          string   `json:"name"`
	Options       []string `json:"options"`
}
