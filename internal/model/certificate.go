package model

import (
	"time"

	"github.com/google/uuid"
)

type CertificateType string

const (
	CertificateInspection  CertificateType = "INSPECTION"
	CertificateMaintenance CertificateType = "PREVENTIVE_MAINTENANCE"
	CertificateCompletion  CertificateType = "COMPLETION"
)

// Certificate is a compliance artifact tied to at most one completed
// work order. Once issued for a work order it is never regenerated.
type Certificate struct {
	ID          uuid.UUID
	WorkOrderID uuid.UUID
	ProjectID   uuid.UUID
	BranchID    uuid.UUID
	Number      string
	Type        CertificateType
	IssuedAt    time.Time
	ExpiresAt   time.Time
	FileURL     string
	CreatedAt   time.Time
}
