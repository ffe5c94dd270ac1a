package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/fireops-orders/internal/model"
)

// Store is the persistence contract the services operate against.
// InTx runs fn against a transaction-bound store; every multi-entity
// workflow goes through it so either all writes commit or none do.
// Conditional updates return whether a row actually changed, which is
// how state-machine preconditions are enforced inside the transaction.
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error

	// Projects.
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	CreateProject(ctx context.Context, p *model.Project) error
	HasActiveProjectInBranch(ctx context.Context, branchID uuid.UUID) (bool, error)
	UpdateProjectStatus(ctx context.Context, id uuid.UUID, from []model.ProjectStatus, to model.ProjectStatus, completedAt *time.Time) (bool, error)
	SetProjectTotalValue(ctx context.Context, id uuid.UUID, total float64) error
	SumWorkOrderPrices(ctx context.Context, projectID uuid.UUID) (float64, error)

	// Checklists.
	CreateChecklist(ctx context.Context, c *model.Checklist) error
	ListChecklists(ctx context.Context, projectID uuid.UUID) ([]model.Checklist, error)
	SetChecklistStatus(ctx context.Context, id uuid.UUID, status model.ChecklistStatus) error
	MarkChecklistsInProgress(ctx context.Context, projectID uuid.UUID) error

	// Work orders.
	GetWorkOrder(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error)
	CreateWorkOrder(ctx context.Context, wo *model.WorkOrder) error
	ListWorkOrders(ctx context.Context, projectID uuid.UUID) ([]model.WorkOrder, error)
	ListWorkOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.WorkOrder, error)
	ListWorkOrdersByChecklist(ctx context.Context, checklistID uuid.UUID) ([]model.WorkOrder, error)
	ListOpenScheduledWorkOrders(ctx context.Context) ([]model.WorkOrder, error)
	SetWorkOrderStage(ctx context.Context, id uuid.UUID, from, to model.WorkOrderStage, completedAt *time.Time) (bool, error)
	ScheduleRequestedWorkOrders(ctx context.Context, projectID uuid.UUID) error
	SetWorkOrderPrice(ctx context.Context, id uuid.UUID, price float64) error
	MarkPaymentSubmitted(ctx context.Context, ids []uuid.UUID, proofURL string, proofType model.ProofType, by uuid.UUID, at time.Time) error
	MarkPaymentVerified(ctx context.Context, ids []uuid.UUID, signature string, by uuid.UUID, at time.Time) error
	CountUnpaidWorkOrders(ctx context.Context, projectID uuid.UUID) (int64, error)

	// Contracts.
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	CreateContract(ctx context.Context, c *model.Contract) error
	GetSignedContractByProject(ctx context.Context, projectID uuid.UUID) (*model.Contract, error)
	AddContractValue(ctx context.Context, id uuid.UUID, delta float64) error
	SetContractEndSignature(ctx context.Context, id uuid.UUID, signatureURL string, by uuid.UUID, at time.Time) (bool, error)
	ListExpiringContracts(ctx context.Context, endOnOrBefore time.Time) ([]model.Contract, error)

	// Invoices. FindInvoiceByProject returns nil when no invoice in
	// the given statuses exists.
	CreateInvoice(ctx context.Context, inv *model.Invoice) error
	CreateInvoiceItem(ctx context.Context, item *model.InvoiceItem) error
	GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindInvoiceByProject(ctx context.Context, projectID uuid.UUID, statuses []model.InvoiceStatus) (*model.Invoice, error)
	RecomputeInvoiceTotals(ctx context.Context, invoiceID uuid.UUID) (*model.Invoice, error)
	SetInvoiceStatus(ctx context.Context, id uuid.UUID, from []model.InvoiceStatus, to model.InvoiceStatus, paidAt *time.Time) (bool, error)

	// Requests and quotations.
	GetRequest(ctx context.Context, id uuid.UUID) (*model.Request, error)
	CreateRequest(ctx context.Context, r *model.Request) error
	CompleteOpenRequests(ctx context.Context, projectID uuid.UUID) error
	ApprovePendingQuotations(ctx context.Context, projectID uuid.UUID) error

	// Certificates.
	CertificateExists(ctx context.Context, workOrderID uuid.UUID) (bool, error)
	CreateCertificate(ctx context.Context, c *model.Certificate) error
	GetCertificate(ctx context.Context, id uuid.UUID) (*model.Certificate, error)
	SetCertificateFileURL(ctx context.Context, id uuid.UUID, fileURL string) error

	// Audit trail and notifications. CreateNotification reports false
	// when an equal (user, related, type) notification already exists
	// for the same calendar day.
	AppendActivity(ctx context.Context, a *model.Activity) error
	CreateNotification(ctx context.Context, n *model.Notification) (bool, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
	ListContractorUserIDs(ctx context.Context) ([]uuid.UUID, error)
	ListClientUserIDs(ctx context.Context, branchID uuid.UUID) ([]uuid.UUID, error)
}
