package models

import "time"

// Business is an operator-owned business profile. The dashboard CRUD around
// it lives elsewhere; acquisition only needs the selection and its numbers.
type Business struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

// PhoneNumber is a number assigned to a business.
type PhoneNumber struct {
	ID          int       `json:"id"`
	BusinessID  string    `json:"business_id"`
	PhoneNumber string    `json:"phone_number"`
	NumberType  string    `json:"number_type"`
	Source      string    `json:"source"` // instant | checkout
	MonthlyPrice float64  `json:"monthly_price,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
