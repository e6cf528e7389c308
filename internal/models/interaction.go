package models

import "time"

// InteractionType classifies a customer touchpoint.
type InteractionType string

const (
	InteractionTypeCall    InteractionType = "CALL"
	InteractionTypeEmail   InteractionType = "EMAIL"
	InteractionTypeMeeting InteractionType = "MEETING"
	InteractionTypeNote    InteractionType = "NOTE"
)

// Interaction represents a recorded customer touchpoint, optionally tied to a
// product.
type Interaction struct {
	ID         string          `db:"id" json:"id"`
	CustomerID string          `db:"customer_id" json:"customer_id"`
	ProductID  *string         `db:"product_id" json:"product_id,omitempty"`
	Type       InteractionType `db:"type" json:"type"`
	Subject    string          `db:"subject" json:"subject"`
	Notes      *string         `db:"notes" json:"notes,omitempty"`
	OccurredAt time.Time       `db:"occurred_at" json:"occurred_at"`
	CreatedBy  string          `db:"created_by" json:"created_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// InteractionFilter captures query criteria for listing interactions.
type InteractionFilter struct {
	Search     string     `json:"search,omitempty"`
	Type       string     `json:"type,omitempty"`
	CustomerID string     `json:"customerId,omitempty"`
	DateFrom   *time.Time `json:"dateFrom,omitempty"`
	DateTo     *time.Time `json:"dateTo,omitempty"`
}
