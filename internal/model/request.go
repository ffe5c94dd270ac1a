package model

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestStatusOpen      RequestStatus = "OPEN"
	RequestStatusCompleted RequestStatus = "COMPLETED"
)

type QuotationStatus string

const (
	QuotationStatusPending  QuotationStatus = "PENDING"
	QuotationStatusApproved QuotationStatus = "APPROVED"
	QuotationStatusRejected QuotationStatus = "REJECTED"
)

// Request is an upstream client ask that may seed a work order or a
// whole project on acceptance.
type Request struct {
	ID               uuid.UUID
	BranchID         uuid.UUID
	ProjectID        *uuid.UUID
	Title            string
	Status           RequestStatus
	NeedsCertificate bool
	CreatedBy        uuid.UUID
	CreatedAt        time.Time
}

type Quotation struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Status    QuotationStatus
	Amount    float64
	CreatedAt time.Time
}
