package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fireops-orders/internal/model"
)

// fakeStore is an in-memory Store. Conditional updates mirror the SQL
// semantics: the write applies only when the precondition still holds,
// and the caller learns whether a row changed.
type fakeStore struct {
	projects      map[uuid.UUID]*model.Project
	checklists    []*model.Checklist
	workOrders    []*model.WorkOrder
	contracts     []*model.Contract
	invoices      []*model.Invoice
	invoiceItems  []*model.InvoiceItem
	requests      map[uuid.UUID]*model.Request
	quotations    []*model.Quotation
	certificates  []*model.Certificate
	activities    []*model.Activity
	notifications []*model.Notification
	users         []*model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: make(map[uuid.UUID]*model.Project),
		requests: make(map[uuid.UUID]*model.Request),
	}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(f)
}

func (f *fakeStore) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func (f *fakeStore) CreateProject(ctx context.Context, p *model.Project) error {
	clone := *p
	f.projects[p.ID] = &clone
	return nil
}

func (f *fakeStore) HasActiveProjectInBranch(ctx context.Context, branchID uuid.UUID) (bool, error) {
	for _, p := range f.projects {
		if p.BranchID == branchID && p.Status == model.ProjectStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) UpdateProjectStatus(ctx context.Context, id uuid.UUID, from []model.ProjectStatus, to model.ProjectStatus, completedAt *time.Time) (bool, error) {
	p, ok := f.projects[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if p.Status == status {
			p.Status = to
			if completedAt != nil {
				p.CompletedAt = completedAt
			}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SetProjectTotalValue(ctx context.Context, id uuid.UUID, total float64) error {
	if p, ok := f.projects[id]; ok {
		p.TotalValue = total
	}
	return nil
}

func (f *fakeStore) SumWorkOrderPrices(ctx context.Context, projectID uuid.UUID) (float64, error) {
	total := 0.0
	for _, wo := range f.workOrders {
		if wo.ProjectID == projectID {
			total += wo.Price
		}
	}
	return total, nil
}

func (f *fakeStore) CreateChecklist(ctx context.Context, c *model.Checklist) error {
	clone := *c
	f.checklists = append(f.checklists, &clone)
	return nil
}

func (f *fakeStore) ListChecklists(ctx context.Context, projectID uuid.UUID) ([]model.Checklist, error) {
	var out []model.Checklist
	for _, c := range f.checklists {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f *fakeStore) SetChecklistStatus(ctx context.Context, id uuid.UUID, status model.ChecklistStatus) error {
	for _, c := range f.checklists {
		if c.ID == id {
			c.Status = status
		}
	}
	return nil
}

func (f *fakeStore) MarkChecklistsInProgress(ctx context.Context, projectID uuid.UUID) error {
	for _, c := range f.checklists {
		if c.ProjectID == projectID && c.Status == model.ChecklistStatusDraft {
			c.Status = model.ChecklistStatusInProgress
		}
	}
	return nil
}

func (f *fakeStore) GetWorkOrder(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	for _, wo := range f.workOrders {
		if wo.ID == id {
			clone := *wo
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) CreateWorkOrder(ctx context.Context, wo *model.WorkOrder) error {
	clone := *wo
	f.workOrders = append(f.workOrders, &clone)
	return nil
}

func (f *fakeStore) ListWorkOrders(ctx context.Context, projectID uuid.UUID) ([]model.WorkOrder, error) {
	var out []model.WorkOrder
	for _, wo := range f.workOrders {
		if wo.ProjectID == projectID {
			out = append(out, *wo)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f *fakeStore) ListWorkOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.WorkOrder, error) {
	var out []model.WorkOrder
	for _, id := range ids {
		for _, wo := range f.workOrders {
			if wo.ID == id {
				out = append(out, *wo)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListWorkOrdersByChecklist(ctx context.Context, checklistID uuid.UUID) ([]model.WorkOrder, error) {
	var out []model.WorkOrder
	for _, wo := range f.workOrders {
		if wo.ChecklistID == checklistID {
			out = append(out, *wo)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (f *fakeStore) ListOpenScheduledWorkOrders(ctx context.Context) ([]model.WorkOrder, error) {
	var out []model.WorkOrder
	for _, wo := range f.workOrders {
		if wo.ScheduledDate == nil {
			continue
		}
		if wo.Stage == model.StageRequested || wo.Stage == model.StageScheduled {
			out = append(out, *wo)
		}
	}
	return out, nil
}

func (f *fakeStore) SetWorkOrderStage(ctx context.Context, id uuid.UUID, from, to model.WorkOrderStage, completedAt *time.Time) (bool, error) {
	for _, wo := range f.workOrders {
		if wo.ID != id || wo.Stage != from {
			continue
		}
		wo.Stage = to
		wo.IsCompleted = to == model.StageCompleted
		if completedAt != nil {
			wo.CompletedAt = completedAt
		}
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) ScheduleRequestedWorkOrders(ctx context.Context, projectID uuid.UUID) error {
	for _, wo := range f.workOrders {
		if wo.ProjectID == projectID && wo.Stage == model.StageRequested {
			wo.Stage = model.StageScheduled
		}
	}
	return nil
}

func (f *fakeStore) SetWorkOrderPrice(ctx context.Context, id uuid.UUID, price float64) error {
	for _, wo := range f.workOrders {
		if wo.ID == id && wo.PaymentStatus != model.PaymentPaid {
			wo.Price = price
		}
	}
	return nil
}

func (f *fakeStore) MarkPaymentSubmitted(ctx context.Context, ids []uuid.UUID, proofURL string, proofType model.ProofType, by uuid.UUID, at time.Time) error {
	for _, id := range ids {
		for _, wo := range f.workOrders {
			if wo.ID != id {
				continue
			}
			wo.PaymentStatus = model.PaymentPendingVerification
			url := proofURL
			kind := proofType
			submitter := by
			when := at
			wo.PaymentProofURL = &url
			wo.PaymentProofType = &kind
			wo.PaymentSubmittedBy = &submitter
			wo.PaymentSubmittedAt = &when
		}
	}
	return nil
}

func (f *fakeStore) MarkPaymentVerified(ctx context.Context, ids []uuid.UUID, signature string, by uuid.UUID, at time.Time) error {
	for _, id := range ids {
		for _, wo := range f.workOrders {
			if wo.ID != id || wo.PaymentStatus != model.PaymentPendingVerification {
				continue
			}
			wo.PaymentStatus = model.PaymentPaid
			sig := signature
			verifier := by
			when := at
			wo.PaymentSignature = &sig
			wo.PaymentVerifiedBy = &verifier
			wo.PaymentVerifiedAt = &when
		}
	}
	return nil
}

func (f *fakeStore) CountUnpaidWorkOrders(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	for _, wo := range f.workOrders {
		if wo.ProjectID == projectID && wo.PaymentStatus != model.PaymentPaid {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	for _, c := range f.contracts {
		if c.ID == id {
			clone := *c
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) CreateContract(ctx context.Context, c *model.Contract) error {
	clone := *c
	f.contracts = append(f.contracts, &clone)
	return nil
}

func (f *fakeStore) GetSignedContractByProject(ctx context.Context, projectID uuid.UUID) (*model.Contract, error) {
	for i := len(f.contracts) - 1; i >= 0; i-- {
		c := f.contracts[i]
		if c.ProjectID != nil && *c.ProjectID == projectID && c.Status == model.ContractStatusSigned {
			clone := *c
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) AddContractValue(ctx context.Context, id uuid.UUID, delta float64) error {
	for _, c := range f.contracts {
		if c.ID == id {
			c.TotalValue += delta
		}
	}
	return nil
}

func (f *fakeStore) SetContractEndSignature(ctx context.Context, id uuid.UUID, signatureURL string, by uuid.UUID, at time.Time) (bool, error) {
	for _, c := range f.contracts {
		if c.ID != id || c.Status != model.ContractStatusSigned {
			continue
		}
		c.Status = model.ContractStatusEnded
		url := signatureURL
		signer := by
		when := at
		c.EndSignatureURL = &url
		c.EndSignedBy = &signer
		c.EndSignedAt = &when
		return true, nil
	}
	return false, nil
}

func (f *fakeStore) ListExpiringContracts(ctx context.Context, endOnOrBefore time.Time) ([]model.Contract, error) {
	var out []model.Contract
	for _, c := range f.contracts {
		if c.Status != model.ContractStatusSigned || c.EndAt == nil {
			continue
		}
		if !c.EndAt.After(endOnOrBefore) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	clone := *inv
	f.invoices = append(f.invoices, &clone)
	return nil
}

func (f *fakeStore) CreateInvoiceItem(ctx context.Context, item *model.InvoiceItem) error {
	clone := *item
	f.invoiceItems = append(f.invoiceItems, &clone)
	return nil
}

func (f *fakeStore) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.ID == id {
			clone := *inv
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) FindInvoiceByProject(ctx context.Context, projectID uuid.UUID, statuses []model.InvoiceStatus) (*model.Invoice, error) {
	for i := len(f.invoices) - 1; i >= 0; i-- {
		inv := f.invoices[i]
		if inv.ProjectID == nil || *inv.ProjectID != projectID {
			continue
		}
		for _, status := range statuses {
			if inv.Status == status {
				clone := *inv
				return &clone, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeStore) RecomputeInvoiceTotals(ctx context.Context, invoiceID uuid.UUID) (*model.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.ID != invoiceID {
			continue
		}
		subtotal := 0.0
		for _, item := range f.invoiceItems {
			if item.InvoiceID == invoiceID {
				subtotal += item.Amount
			}
		}
		inv.Subtotal = subtotal
		inv.TaxAmount = subtotal * inv.TaxRate
		inv.Total = subtotal + inv.TaxAmount
		clone := *inv
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) SetInvoiceStatus(ctx context.Context, id uuid.UUID, from []model.InvoiceStatus, to model.InvoiceStatus, paidAt *time.Time) (bool, error) {
	for _, inv := range f.invoices {
		if inv.ID != id {
			continue
		}
		for _, status := range from {
			if inv.Status == status {
				inv.Status = to
				if paidAt != nil {
					inv.PaidAt = paidAt
				}
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeStore) GetRequest(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *r
	return &clone, nil
}

func (f *fakeStore) CreateRequest(ctx context.Context, r *model.Request) error {
	clone := *r
	f.requests[r.ID] = &clone
	return nil
}

func (f *fakeStore) CompleteOpenRequests(ctx context.Context, projectID uuid.UUID) error {
	for _, r := range f.requests {
		if r.ProjectID != nil && *r.ProjectID == projectID && r.Status == model.RequestStatusOpen {
			r.Status = model.RequestStatusCompleted
		}
	}
	return nil
}

func (f *fakeStore) ApprovePendingQuotations(ctx context.Context, projectID uuid.UUID) error {
	for _, q := range f.quotations {
		if q.ProjectID == projectID && q.Status == model.QuotationStatusPending {
			q.Status = model.QuotationStatusApproved
		}
	}
	return nil
}

func (f *fakeStore) CertificateExists(ctx context.Context, workOrderID uuid.UUID) (bool, error) {
	for _, c := range f.certificates {
		if c.WorkOrderID == workOrderID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateCertificate(ctx context.Context, c *model.Certificate) error {
	clone := *c
	f.certificates = append(f.certificates, &clone)
	return nil
}

func (f *fakeStore) GetCertificate(ctx context.Context, id uuid.UUID) (*model.Certificate, error) {
	for _, c := range f.certificates {
		if c.ID == id {
			clone := *c
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) SetCertificateFileURL(ctx context.Context, id uuid.UUID, fileURL string) error {
	for _, c := range f.certificates {
		if c.ID == id {
			c.FileURL = fileURL
		}
	}
	return nil
}

func (f *fakeStore) AppendActivity(ctx context.Context, a *model.Activity) error {
	clone := *a
	f.activities = append(f.activities, &clone)
	return nil
}

func (f *fakeStore) CreateNotification(ctx context.Context, n *model.Notification) (bool, error) {
	for _, existing := range f.notifications {
		if existing.UserID != n.UserID || existing.Type != n.Type {
			continue
		}
		if !sameRelated(existing.RelatedID, n.RelatedID) {
			continue
		}
		if sameDay(existing.CreatedAt, n.CreatedAt) {
			return false, nil
		}
	}
	clone := *n
	f.notifications = append(f.notifications, &clone)
	return true, nil
}

func (f *fakeStore) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var out []model.Notification
	for i := len(f.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if f.notifications[i].UserID == userID {
			out = append(out, *f.notifications[i])
		}
	}
	return out, nil
}

func (f *fakeStore) ListContractorUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, u := range f.users {
		if u.Role == model.RoleContractor {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (f *fakeStore) ListClientUserIDs(ctx context.Context, branchID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, u := range f.users {
		if u.Role == model.RoleClient && u.BranchID != nil && *u.BranchID == branchID {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func sameRelated(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (f *fakeStore) countNotifications(kind model.NotificationType) int {
	count := 0
	for _, n := range f.notifications {
		if n.Type == kind {
			count++
		}
	}
	return count
}

func (f *fakeStore) findWorkOrder(id uuid.UUID) *model.WorkOrder {
	for _, wo := range f.workOrders {
		if wo.ID == id {
			return wo
		}
	}
	return nil
}
