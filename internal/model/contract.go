package model

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusSigned ContractStatus = "SIGNED"
	ContractStatusEnded  ContractStatus = "ENDED"
)

// Contract is the legal record of a signed engagement. TotalValue must
// equal the sum of work-order prices under its project after every
// ad-hoc approval.
type Contract struct {
	ID              uuid.UUID
	ProjectID       *uuid.UUID
	Number          string
	Status          ContractStatus
	TotalValue      float64
	StartAt         time.Time
	EndAt           *time.Time
	SignedAt        time.Time
	EndSignatureURL *string
	EndSignedBy     *uuid.UUID
	EndSignedAt     *time.Time
	CreatedAt       time.Time
}
