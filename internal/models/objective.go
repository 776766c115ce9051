package models

import "time"

// Objective is a learnable item from the catalog. The engine only reads it.
type Objective struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Title            string    `json:"title"`
	Category         string    `json:"category,omitempty"`
	EstimatedMinutes int       `json:"estimated_minutes"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}
