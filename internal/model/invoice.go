package model

import (
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft          InvoiceStatus = "DRAFT"
	InvoiceStatusSent           InvoiceStatus = "SENT"
	InvoiceStatusPaymentPending InvoiceStatus = "PAYMENT_PENDING"
	InvoiceStatusPaid           InvoiceStatus = "PAID"
	InvoiceStatusPartial        InvoiceStatus = "PARTIAL"
)

// Invoice totals are derived from its items: subtotal = sum(amount),
// tax = subtotal * rate, total = subtotal + tax.
type Invoice struct {
	ID        uuid.UUID
	ProjectID *uuid.UUID
	Number    string
	Status    InvoiceStatus
	Subtotal  float64
	TaxRate   float64
	TaxAmount float64
	Total     float64
	DueDate   time.Time
	PaidAt    *time.Time
	CreatedAt time.Time
}

type InvoiceItem struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	WorkOrderID *uuid.UUID
	Description string
	Amount      float64
	SortOrder   int
	CreatedAt   time.Time
}
