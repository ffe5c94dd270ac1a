package model

import (
	"time"

	"github.com/google/uuid"
)

type ProjectStatus string

const (
	ProjectStatusPending   ProjectStatus = "PENDING"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusDone      ProjectStatus = "DONE"
	ProjectStatusClosed    ProjectStatus = "CLOSED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

type ChecklistStatus string

const (
	ChecklistStatusDraft      ChecklistStatus = "DRAFT"
	ChecklistStatusInProgress ChecklistStatus = "IN_PROGRESS"
	ChecklistStatusCompleted  ChecklistStatus = "COMPLETED"
)

// Project is one service engagement at one branch. At most one ACTIVE
// project may exist per branch at any time.
type Project struct {
	ID          uuid.UUID
	BranchID    uuid.UUID
	ClientOrgID uuid.UUID
	Title       string
	Status      ProjectStatus
	TotalValue  float64
	StartDate   time.Time
	EndDate     *time.Time
	AutoRenew   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

type Checklist struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Name      string
	Status    ChecklistStatus
	SortOrder int
	CreatedAt time.Time
}
