package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/config"
	"github.com/nurpe/fireops-orders/internal/model"
	"github.com/nurpe/fireops-orders/internal/schedule"
)

// ProjectService drives the project lifecycle:
// PENDING -> ACTIVE -> DONE -> CLOSED, with CANCELLED reachable from
// PENDING and ACTIVE. Every multi-entity transition runs in a single
// store transaction with its precondition enforced by a conditional
// update, so a losing concurrent caller observes a state conflict
// instead of double-applying the workflow.
type ProjectService struct {
	store   Store
	excel   ScheduleExporter
	billing config.BillingConfig
	log     zerolog.Logger
	now     func() time.Time
}

// ScheduleExporter renders a project schedule as a spreadsheet.
type ScheduleExporter interface {
	Generate(export model.ScheduleExport) ([]byte, error)
}

func NewProjectService(store Store, excel ScheduleExporter, billing config.BillingConfig, log zerolog.Logger) *ProjectService {
	return &ProjectService{
		store:   store,
		excel:   excel,
		billing: billing,
		log:     log,
		now:     time.Now,
	}
}

type ChecklistInput struct {
	Name      string
	Templates []schedule.Template
}

type CreateProjectInput struct {
	BranchID    uuid.UUID
	ClientOrgID uuid.UUID
	Title       string
	StartDate   time.Time
	EndDate     *time.Time
	AutoRenew   bool
	Checklists  []ChecklistInput
	Principal   model.Principal
}

// CreateProject persists a PENDING proposal: the project, its
// checklists and the work orders expanded from the recurring
// templates, all in one transaction.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*model.Project, error) {
	if input.Principal.IsClient() {
		return nil, ErrPermissionDenied
	}
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.BranchID == uuid.Nil || input.ClientOrgID == uuid.Nil {
		return nil, fmt.Errorf("%w: branch and client are required", ErrInvalidInput)
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}

	project := &model.Project{
		ID:          uuid.New(),
		BranchID:    input.BranchID,
		ClientOrgID: input.ClientOrgID,
		Title:       input.Title,
		Status:      model.ProjectStatusPending,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		AutoRenew:   input.AutoRenew,
		CreatedAt:   s.now(),
	}

	err := s.store.InTx(ctx, func(tx Store) error {
		active, err := tx.HasActiveProjectInBranch(ctx, input.BranchID)
		if err != nil {
			return err
		}
		if active {
			return ErrActiveProjectExists
		}

		if err := tx.CreateProject(ctx, project); err != nil {
			return err
		}

		total := 0.0
		for ci, cl := range input.Checklists {
			checklist := &model.Checklist{
				ID:        uuid.New(),
				ProjectID: project.ID,
				Name:      cl.Name,
				Status:    model.ChecklistStatusDraft,
				SortOrder: ci,
				CreatedAt: s.now(),
			}
			if err := tx.CreateChecklist(ctx, checklist); err != nil {
				return err
			}

			sortBase := 0
			for _, tpl := range cl.Templates {
				occurrences := schedule.Expand(tpl, input.StartDate, input.EndDate, sortBase)
				sortBase += len(occurrences)
				for _, occ := range occurrences {
					scheduled := occ.ScheduledDate
					wo := &model.WorkOrder{
						ID:              uuid.New(),
						ChecklistID:     checklist.ID,
						ProjectID:       project.ID,
						BranchID:        project.BranchID,
						Name:            occ.Name,
						Description:     occ.Description,
						Price:           occ.Price,
						ScheduledDate:   &scheduled,
						Stage:           model.StageRequested,
						Type:            model.WorkOrderTypeScheduled,
						WorkType:        occ.WorkType,
						RecurringType:   occ.RecurringType,
						OccurrenceIndex: occ.OccurrenceIndex,
						SortOrder:       occ.SortOrder,
						PaymentStatus:   model.PaymentUnpaid,
						CreatedAt:       s.now(),
					}
					if err := tx.CreateWorkOrder(ctx, wo); err != nil {
						return err
					}
					total += occ.Price
				}
			}
		}

		if err := tx.SetProjectTotalValue(ctx, project.ID, total); err != nil {
			return err
		}
		project.TotalValue = total

		return tx.AppendActivity(ctx, &model.Activity{
			ID:        uuid.New(),
			ProjectID: project.ID,
			ActorID:   input.Principal.UserID,
			Action:    "PROJECT_CREATED",
			Detail:    fmt.Sprintf("project %q proposed for branch %s", project.Title, project.BranchID),
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

type ApproveProjectResult struct {
	Project    *model.Project
	ContractID uuid.UUID
	InvoiceID  uuid.UUID
}

// ApproveProject takes a PENDING project live: totals are recomputed
// from the work orders, pending quotations are approved, a SIGNED
// contract and a SENT invoice are created, requested work orders
// become SCHEDULED and their checklists IN_PROGRESS, open requests are
// completed. All of it commits atomically or not at all.
func (s *ProjectService) ApproveProject(ctx context.Context, projectID uuid.UUID, principal model.Principal) (*ApproveProjectResult, error) {
	if !principal.IsClient() && !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	result := &ApproveProjectResult{}
	err := s.store.InTx(ctx, func(tx Store) error {
		project, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return notFoundAs(err, "project")
		}

		changed, err := tx.UpdateProjectStatus(ctx, projectID,
			[]model.ProjectStatus{model.ProjectStatusPending}, model.ProjectStatusActive, nil)
		if err != nil {
			return err
		}
		if !changed {
			return ErrProjectNotPending
		}

		total, err := tx.SumWorkOrderPrices(ctx, projectID)
		if err != nil {
			return err
		}
		if err := tx.SetProjectTotalValue(ctx, projectID, total); err != nil {
			return err
		}
		project.Status = model.ProjectStatusActive
		project.TotalValue = total

		if err := tx.ApprovePendingQuotations(ctx, projectID); err != nil {
			return err
		}

		now := s.now()
		contract := &model.Contract{
			ID:         uuid.New(),
			ProjectID:  &project.ID,
			Number:     documentNumber("CT", now),
			Status:     model.ContractStatusSigned,
			TotalValue: total,
			StartAt:    project.StartDate,
			EndAt:      project.EndDate,
			SignedAt:   now,
			CreatedAt:  now,
		}
		if err := tx.CreateContract(ctx, contract); err != nil {
			return err
		}
		result.ContractID = contract.ID

		dueDate := now.AddDate(0, 0, s.invoiceDueDays())
		if project.EndDate != nil {
			dueDate = *project.EndDate
		}
		invoice := &model.Invoice{
			ID:        uuid.New(),
			ProjectID: &project.ID,
			Number:    documentNumber("INV", now),
			Status:    model.InvoiceStatusSent,
			TaxRate:   s.billing.TaxRate,
			DueDate:   dueDate,
			CreatedAt: now,
		}
		if err := tx.CreateInvoice(ctx, invoice); err != nil {
			return err
		}

		items, err := tx.ListWorkOrders(ctx, projectID)
		if err != nil {
			return err
		}
		for i, wo := range items {
			if err := tx.CreateInvoiceItem(ctx, &model.InvoiceItem{
				ID:          uuid.New(),
				InvoiceID:   invoice.ID,
				WorkOrderID: &items[i].ID,
				Description: wo.Name,
				Amount:      wo.Price,
				SortOrder:   i,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}
		if _, err := tx.RecomputeInvoiceTotals(ctx, invoice.ID); err != nil {
			return err
		}
		result.InvoiceID = invoice.ID

		if err := tx.ScheduleRequestedWorkOrders(ctx, projectID); err != nil {
			return err
		}
		if err := tx.MarkChecklistsInProgress(ctx, projectID); err != nil {
			return err
		}
		if err := tx.CompleteOpenRequests(ctx, projectID); err != nil {
			return err
		}

		if err := notifyBranchClients(ctx, tx, project.BranchID, &project.ID, model.NotifyProjectApproved,
			"Project approved",
			fmt.Sprintf("project %q is now active", project.Title),
			"/projects/"+project.ID.String(), now); err != nil {
			return err
		}

		result.Project = project
		return tx.AppendActivity(ctx, &model.Activity{
			ID:        uuid.New(),
			ProjectID: projectID,
			ActorID:   principal.UserID,
			Action:    "PROJECT_APPROVED",
			Detail:    fmt.Sprintf("contract %s and invoice %s issued, total %.2f", contract.Number, invoice.Number, total),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("project_id", projectID.String()).
		Str("contract_id", result.ContractID.String()).
		Str("invoice_id", result.InvoiceID.String()).
		Msg("project approved")
	return result, nil
}

// ApproveAdhocWorkOrder merges an ad-hoc item into an active project:
// the item becomes SCHEDULED and the project, open invoice and signed
// contract all absorb its price in the same transaction.
func (s *ProjectService) ApproveAdhocWorkOrder(ctx context.Context, projectID, workOrderID uuid.UUID, principal model.Principal) (*model.WorkOrder, error) {
	if !principal.IsContractor() && !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	var approved *model.WorkOrder
	err := s.store.InTx(ctx, func(tx Store) error {
		wo, err := tx.GetWorkOrder(ctx, workOrderID)
		if err != nil {
			return notFoundAs(err, "work order")
		}
		if wo.ProjectID != projectID {
			return fmt.Errorf("%w: work order does not belong to project", ErrInvalidInput)
		}
		if wo.Type != model.WorkOrderTypeAdhoc {
			return fmt.Errorf("%w: work order is not ad-hoc", ErrInvalidInput)
		}

		project, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return notFoundAs(err, "project")
		}
		if project.Status != model.ProjectStatusActive {
			return ErrProjectNotActive
		}

		changed, err := tx.SetWorkOrderStage(ctx, workOrderID, model.StageRequested, model.StageScheduled, nil)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: work order already approved", ErrStateConflict)
		}
		wo.Stage = model.StageScheduled

		total, err := tx.SumWorkOrderPrices(ctx, projectID)
		if err != nil {
			return err
		}
		if err := tx.SetProjectTotalValue(ctx, projectID, total); err != nil {
			return err
		}

		now := s.now()
		invoice, err := tx.FindInvoiceByProject(ctx, projectID,
			[]model.InvoiceStatus{model.InvoiceStatusDraft, model.InvoiceStatusSent})
		if err != nil {
			return err
		}
		if invoice != nil {
			if err := tx.CreateInvoiceItem(ctx, &model.InvoiceItem{
				ID:          uuid.New(),
				InvoiceID:   invoice.ID,
				WorkOrderID: &wo.ID,
				Description: wo.Name,
				Amount:      wo.Price,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
			if _, err := tx.RecomputeInvoiceTotals(ctx, invoice.ID); err != nil {
				return err
			}
		}

		contract, err := tx.GetSignedContractByProject(ctx, projectID)
		if err != nil {
			return err
		}
		if contract != nil {
			if err := tx.AddContractValue(ctx, contract.ID, wo.Price); err != nil {
				return err
			}
		}

		approved = wo
		return tx.AppendActivity(ctx, &model.Activity{
			ID:        uuid.New(),
			ProjectID: projectID,
			ActorID:   principal.UserID,
			Action:    "WORK_ORDER_APPROVED",
			Detail:    fmt.Sprintf("ad-hoc work order %q approved, price %.2f", wo.Name, wo.Price),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// CompleteProject moves ACTIVE -> DONE. Item completion is not
// checked here; that gate belongs to the contract end signature.
func (s *ProjectService) CompleteProject(ctx context.Context, projectID uuid.UUID, principal model.Principal) (*model.Project, error) {
	var project *model.Project
	err := s.store.InTx(ctx, func(tx Store) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return notFoundAs(err, "project")
		}

		now := s.now()
		changed, err := tx.UpdateProjectStatus(ctx, projectID,
			[]model.ProjectStatus{model.ProjectStatusActive}, model.ProjectStatusDone, &now)
		if err != nil {
			return err
		}
		if !changed {
			return ErrProjectNotActive
		}
		p.Status = model.ProjectStatusDone
		p.CompletedAt = &now

		// If the invoice already settled, the project closes in the
		// same step.
		paidInvoice, err := tx.FindInvoiceByProject(ctx, projectID,
			[]model.InvoiceStatus{model.InvoiceStatusPaid})
		if err != nil {
			return err
		}
		if paidInvoice != nil {
			closed, err := tx.UpdateProjectStatus(ctx, projectID,
				[]model.ProjectStatus{model.ProjectStatusDone}, model.ProjectStatusClosed, nil)
			if err != nil {
				return err
			}
			if closed {
				p.Status = model.ProjectStatusClosed
			}
		}
		project = p

		return tx.AppendActivity(ctx, &model.Activity{
			ID:        uuid.New(),
			ProjectID: projectID,
			ActorID:   principal.UserID,
			Action:    "PROJECT_COMPLETED",
			Detail:    "project marked done",
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// CancelProject moves PENDING or ACTIVE to CANCELLED.
func (s *ProjectService) CancelProject(ctx context.Context, projectID uuid.UUID, reason string, principal model.Principal) (*model.Project, error) {
	if principal.IsClient() {
		return nil, ErrPermissionDenied
	}

	var project *model.Project
	err := s.store.InTx(ctx, func(tx Store) error {
		p, err := tx.GetProject(ctx, projectID)
		if err != nil {
			return notFoundAs(err, "project")
		}

		changed, err := tx.UpdateProjectStatus(ctx, projectID,
			[]model.ProjectStatus{model.ProjectStatusPending, model.ProjectStatusActive},
			model.ProjectStatusCancelled, nil)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: project cannot be cancelled from %s", ErrStateConflict, p.Status)
		}
		p.Status = model.ProjectStatusCancelled
		project = p

		return tx.AppendActivity(ctx, &model.Activity{
			ID:        uuid.New(),
			ProjectID: projectID,
			ActorID:   principal.UserID,
			Action:    "PROJECT_CANCELLED",
			Detail:    reason,
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

type CloneProjectInput struct {
	Title     string
	StartDate time.Time
	EndDate   *time.Time
	AutoRenew bool
}

// CloneProject renews an engagement: a new PENDING project carrying
// only the SCHEDULED-type work orders of the template, plus a renewal
// request for the client to review. Ad-hoc items are not renewed.
// Rejected while the branch still has an ACTIVE project.
func (s *ProjectService) CloneProject(ctx context.Context, templateProjectID uuid.UUID, input CloneProjectInput, principal model.Principal) (*model.Project, error) {
	if principal.IsClient() {
		return nil, ErrPermissionDenied
	}
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}

	var clone *model.Project
	err := s.store.InTx(ctx, func(tx Store) error {
		template, err := tx.GetProject(ctx, templateProjectID)
		if err != nil {
			return notFoundAs(err, "template project")
		}

		active, err := tx.HasActiveProjectInBranch(ctx, template.BranchID)
		if err != nil {
			return err
		}
		if active {
			return ErrActiveProjectExists
		}

		now := s.now()
		clone = &model.Project{
			ID:          uuid.New(),
			BranchID:    template.BranchID,
			ClientOrgID: template.ClientOrgID,
			Title:       input.Title,
			Status:      model.ProjectStatusPending,
			StartDate:   input.StartDate,
			EndDate:     input.EndDate,
			AutoRenew:   input.AutoRenew,
			CreatedAt:   now,
		}
		if err := tx.CreateProject(ctx, clone); err != nil {
			return err
		}

		shift := input.StartDate.Sub(template.StartDate)
		checklists, err := tx.ListChecklists(ctx, templateProjectID)
		if err != nil {
			return err
		}

		total := 0.0
		for _, cl := range checklists {
			items, err := tx.ListWorkOrdersByChecklist(ctx, cl.ID)
			if err != nil {
				return err
			}

			kept := make([]model.WorkOrder, 0, len(items))
			for _, wo := range items {
				if wo.Type == model.WorkOrderTypeScheduled {
					kept = append(kept, wo)
				}
			}
			if len(kept) == 0 {
				continue
			}

			newChecklist := &model.Checklist{
				ID:        uuid.New(),
				ProjectID: clone.ID,
				Name:      cl.Name,
				Status:    model.ChecklistStatusDraft,
				SortOrder: cl.SortOrder,
				CreatedAt: now,
			}
			if err := tx.CreateChecklist(ctx, newChecklist); err != nil {
				return err
			}

			for _, wo := range kept {
				var scheduled *time.Time
				if wo.ScheduledDate != nil {
					shifted := wo.ScheduledDate.Add(shift)
					scheduled = &shifted
				}
				if err := tx.CreateWorkOrder(ctx, &model.WorkOrder{
					ID:              uuid.New(),
					ChecklistID:     newChecklist.ID,
					ProjectID:       clone.ID,
					BranchID:        clone.BranchID,
					Name:            wo.Name,
					Description:     wo.Description,
					Price:           wo.Price,
					ScheduledDate:   scheduled,
					Stage:           model.StageRequested,
					Type:            model.WorkOrderTypeScheduled,
					WorkType:        wo.WorkType,
					RecurringType:   wo.RecurringType,
					OccurrenceIndex: wo.OccurrenceIndex,
					SortOrder:       wo.SortOrder,
					PaymentStatus:   model.PaymentUnpaid,
					CreatedAt:       now,
				}); err != nil {
					return err
				}
				total += wo.Price
			}
		}

		if err := tx.SetProjectTotalValue(ctx, clone.ID, total); err != nil {
			return err
		}
		clone.TotalValue = total

		if err := tx.CreateRequest(ctx, &model.Request{
			ID:        uuid.New(),
			BranchID:  clone.BranchID,
			ProjectID: &clone.ID,
			Title:     fmt.Sprintf("Renewal review: %s", clone.Title),
			Status:    model.RequestStatusOpen,
			CreatedBy: principal.UserID,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		if err := notifyBranchClients(ctx, tx, clone.BranchID, &clone.ID, model.NotifyRenewalProposed,
			"Renewal proposed",
			fmt.Sprintf("renewal %q is ready for review", clone.Title),
			"/projects/"+clone.ID.String(), now); err != nil {
			return err
		}

		return tx.AppendActivity(ctx, &model.Activity{
			ID:        uuid.New(),
			ProjectID: clone.ID,
			ActorID:   principal.UserID,
			Action:    "PROJECT_CLONED",
			Detail:    fmt.Sprintf("renewed from project %s", templateProjectID),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "project")
	}
	return project, nil
}

type ScheduleExportResult struct {
	FileName string
	Content  []byte
}

// ExportSchedule renders the project's work-order schedule grouped by
// checklist.
func (s *ProjectService) ExportSchedule(ctx context.Context, projectID uuid.UUID, principal model.Principal) (*ScheduleExportResult, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, notFoundAs(err, "project")
	}

	checklists, err := s.store.ListChecklists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	export := model.ScheduleExport{Project: *project}
	for _, cl := range checklists {
		items, err := s.store.ListWorkOrdersByChecklist(ctx, cl.ID)
		if err != nil {
			return nil, err
		}
		export.Checklists = append(export.Checklists, model.ChecklistSchedule{
			Checklist: cl,
			Items:     items,
		})
	}

	content, err := s.excel.Generate(export)
	if err != nil {
		return nil, err
	}
	return &ScheduleExportResult{
		FileName: fmt.Sprintf("schedule-%s-%s.xlsx", sanitizeFileName(project.Title), s.now().Format("20060102")),
		Content:  content,
	}, nil
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}

func (s *ProjectService) invoiceDueDays() int {
	if s.billing.InvoiceDueDays > 0 {
		return s.billing.InvoiceDueDays
	}
	return 30
}

func documentNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), uuid.NewString()[:8])
}

// notifyBranchClients fans a notification out to the client users of a
// branch, resolved at send time.
func notifyBranchClients(ctx context.Context, tx Store, branchID uuid.UUID, relatedID *uuid.UUID, kind model.NotificationType, title, message, link string, now time.Time) error {
	userIDs, err := tx.ListClientUserIDs(ctx, branchID)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if _, err := tx.CreateNotification(ctx, &model.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      kind,
			Title:     title,
			Message:   message,
			Link:      link,
			RelatedID: relatedID,
			CreatedAt: now,
		}); err != nil {
			return err
		}
	}
	return nil
}
