package models

import "time"

// CustomerType classifies a customer's lifecycle stage.
type CustomerType string

const (
	CustomerTypeLead     CustomerType = "LEAD"
	CustomerTypeProspect CustomerType = "PROSPECT"
	CustomerTypeActive   CustomerType = "ACTIVE"
	CustomerTypeChurned  CustomerType = "CHURNED"
)

// Customer represents a business contact stored in the customers table.
type Customer struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Email     string       `db:"email" json:"email"`
	Phone     string       `db:"phone" json:"phone"`
	Company   string       `db:"company" json:"company"`
	Type      CustomerType `db:"type" json:"type"`
	City      string       `db:"city" json:"city"`
	Country   string       `db:"country" json:"country"`
	Notes     *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

// CustomerFilter captures query criteria for listing customers.
type CustomerFilter struct {
	Search      string     `json:"search,omitempty"`
	Type        string     `json:"type,omitempty"`
	CreatedFrom *time.Time `json:"createdFrom,omitempty"`
	CreatedTo   *time.Time `json:"createdTo,omitempty"`
}
