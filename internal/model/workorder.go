package model

import (
	"time"

	"github.com/google/uuid"
)

type WorkOrderStage string

const (
	StageRequested  WorkOrderStage = "REQUESTED"
	StageScheduled  WorkOrderStage = "SCHEDULED"
	StageInProgress WorkOrderStage = "IN_PROGRESS"
	StageForReview  WorkOrderStage = "FOR_REVIEW"
	StageCompleted  WorkOrderStage = "COMPLETED"
)

type WorkOrderType string

const (
	WorkOrderTypeScheduled WorkOrderType = "SCHEDULED"
	WorkOrderTypeAdhoc     WorkOrderType = "ADHOC"
)

type WorkType string

const (
	WorkTypeInspection   WorkType = "INSPECTION"
	WorkTypeMaintenance  WorkType = "MAINTENANCE"
	WorkTypeInstallation WorkType = "INSTALLATION"
	WorkTypeOther        WorkType = "OTHER"
)

type RecurringType string

const (
	RecurringOnce      RecurringType = "ONCE"
	RecurringMonthly   RecurringType = "MONTHLY"
	RecurringQuarterly RecurringType = "QUARTERLY"
)

type PaymentStatus string

const (
	PaymentUnpaid              PaymentStatus = "UNPAID"
	PaymentPendingVerification PaymentStatus = "PENDING_VERIFICATION"
	PaymentPaid                PaymentStatus = "PAID"
)

type ProofType string

const (
	ProofTypeFile ProofType = "file"
	ProofTypeLink ProofType = "link"
)

// WorkOrder is the unit of billable, schedulable work under a checklist.
// Stage moves forward only; price is immutable once the order is PAID.
type WorkOrder struct {
	ID              uuid.UUID
	ChecklistID     uuid.UUID
	ProjectID       uuid.UUID
	BranchID        uuid.UUID
	Name            string
	Description     string
	Price           float64
	ScheduledDate   *time.Time
	Stage           WorkOrderStage
	Type            WorkOrderType
	WorkType        WorkType
	RecurringType   RecurringType
	OccurrenceIndex int
	SortOrder       int
	IsCompleted     bool
	CompletedAt     *time.Time
	LinkedRequestID *uuid.UUID

	PaymentStatus      PaymentStatus
	PaymentProofURL    *string
	PaymentProofType   *ProofType
	PaymentSubmittedBy *uuid.UUID
	PaymentSubmittedAt *time.Time
	PaymentSignature   *string
	PaymentVerifiedBy  *uuid.UUID
	PaymentVerifiedAt  *time.Time

	CreatedAt time.Time
}

// StageRank orders stages for the forward-only check. Unknown stages
// rank as -1.
func StageRank(stage WorkOrderStage) int {
	switch stage {
	case StageRequested:
		return 0
	case StageScheduled:
		return 1
	case StageInProgress:
		return 2
	case StageForReview:
		return 3
	case StageCompleted:
		return 4
	default:
		return -1
	}
}
