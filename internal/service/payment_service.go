package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/model"
)

// PaymentService implements the two-phase proof flow: clients submit
// a payment proof, contractors verify it with a signature. Batch calls
// validate the whole id set before any write.
type PaymentService struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewPaymentService(store Store, log zerolog.Logger) *PaymentService {
	return &PaymentService{store: store, log: log, now: time.Now}
}

type SubmitProofInput struct {
	WorkOrderIDs []uuid.UUID
	ProofURL     string
	ProofType    model.ProofType
	Principal    model.Principal
}

// SubmitProof attaches a payment proof to the work orders and moves
// them to PENDING_VERIFICATION. All ids must exist, belong to one
// branch and not be paid already; otherwise the whole batch is
// rejected before any write.
func (s *PaymentService) SubmitProof(ctx context.Context, input SubmitProofInput) error {
	if !input.Principal.IsClient() {
		return ErrPermissionDenied
	}
	if len(input.WorkOrderIDs) == 0 {
		return fmt.Errorf("%w: work order ids are required", ErrInvalidInput)
	}
	if input.ProofURL == "" {
		return fmt.Errorf("%w: proof is required", ErrInvalidInput)
	}
	if input.ProofType != model.ProofTypeFile && input.ProofType != model.ProofTypeLink {
		return fmt.Errorf("%w: proof type must be file or link", ErrInvalidInput)
	}

	return s.store.InTx(ctx, func(tx Store) error {
		items, err := s.loadBatch(ctx, tx, input.WorkOrderIDs)
		if err != nil {
			return err
		}
		for _, wo := range items {
			if wo.PaymentStatus == model.PaymentPaid {
				return fmt.Errorf("%w: work order %s is already paid", ErrStateConflict, wo.ID)
			}
		}

		now := s.now()
		if err := tx.MarkPaymentSubmitted(ctx, input.WorkOrderIDs, input.ProofURL, input.ProofType, input.Principal.UserID, now); err != nil {
			return err
		}

		for _, projectID := range distinctProjects(items) {
			invoice, err := tx.FindInvoiceByProject(ctx, projectID,
				[]model.InvoiceStatus{model.InvoiceStatusSent})
			if err != nil {
				return err
			}
			if invoice != nil {
				if _, err := tx.SetInvoiceStatus(ctx, invoice.ID,
					[]model.InvoiceStatus{model.InvoiceStatusSent},
					model.InvoiceStatusPaymentPending, nil); err != nil {
					return err
				}
			}

			if err := notifyContractors(ctx, tx, &projectID, model.NotifyPaymentSubmitted,
				"Payment proof submitted",
				fmt.Sprintf("payment proof submitted for %d work order(s)", len(items)),
				"/projects/"+projectID.String(), now); err != nil {
				return err
			}

			if err := tx.AppendActivity(ctx, &model.Activity{
				ID:        uuid.New(),
				ProjectID: projectID,
				ActorID:   input.Principal.UserID,
				Action:    "PAYMENT_SUBMITTED",
				Detail:    fmt.Sprintf("proof (%s) submitted for %d work order(s)", input.ProofType, len(items)),
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

type VerifyPaymentInput struct {
	WorkOrderIDs []uuid.UUID
	SignatureURL string
	Principal    model.Principal
}

// VerifyPayment confirms submitted proofs and marks the work orders
// PAID. A signature is mandatory; verifying a work order that never
// had a proof submitted fails the whole batch. When every work order
// of a project ends up paid, the project invoice settles in the same
// transaction.
func (s *PaymentService) VerifyPayment(ctx context.Context, input VerifyPaymentInput) error {
	if !input.Principal.IsContractor() && !input.Principal.IsAdmin() {
		return ErrPermissionDenied
	}
	if len(input.WorkOrderIDs) == 0 {
		return fmt.Errorf("%w: work order ids are required", ErrInvalidInput)
	}
	if input.SignatureURL == "" {
		return fmt.Errorf("%w: signature is required", ErrInvalidInput)
	}

	return s.store.InTx(ctx, func(tx Store) error {
		items, err := s.loadBatch(ctx, tx, input.WorkOrderIDs)
		if err != nil {
			return err
		}
		for _, wo := range items {
			if wo.PaymentStatus != model.PaymentPendingVerification || wo.PaymentProofURL == nil {
				return fmt.Errorf("%w: work order %s", ErrNoPaymentProof, wo.ID)
			}
		}

		now := s.now()
		if err := tx.MarkPaymentVerified(ctx, input.WorkOrderIDs, input.SignatureURL, input.Principal.UserID, now); err != nil {
			return err
		}

		for _, projectID := range distinctProjects(items) {
			if err := settleProjectInvoice(ctx, tx, projectID, now); err != nil {
				return err
			}

			if err := notifyBranchClients(ctx, tx, items[0].BranchID, &projectID, model.NotifyPaymentVerified,
				"Payment verified",
				fmt.Sprintf("payment verified for %d work order(s)", len(items)),
				"/projects/"+projectID.String(), now); err != nil {
				return err
			}

			if err := tx.AppendActivity(ctx, &model.Activity{
				ID:        uuid.New(),
				ProjectID: projectID,
				ActorID:   input.Principal.UserID,
				Action:    "PAYMENT_VERIFIED",
				Detail:    fmt.Sprintf("payment verified for %d work order(s)", len(items)),
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// loadBatch fetches and validates a work-order id set: every id must
// resolve and all rows must belong to the same branch.
func (s *PaymentService) loadBatch(ctx context.Context, tx Store, ids []uuid.UUID) ([]model.WorkOrder, error) {
	items, err := tx.ListWorkOrdersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(items) != len(ids) {
		return nil, fmt.Errorf("%w: one or more work orders", ErrNotFound)
	}
	branch := items[0].BranchID
	for _, wo := range items[1:] {
		if wo.BranchID != branch {
			return nil, fmt.Errorf("%w: work orders span multiple branches", ErrInvalidInput)
		}
	}
	return items, nil
}

// settleProjectInvoice is the single place where an invoice can reach
// PAID, and with it the DONE project closes. Every path that can mark
// work orders paid funnels through here.
func settleProjectInvoice(ctx context.Context, tx Store, projectID uuid.UUID, now time.Time) error {
	invoice, err := tx.FindInvoiceByProject(ctx, projectID, []model.InvoiceStatus{
		model.InvoiceStatusDraft,
		model.InvoiceStatusSent,
		model.InvoiceStatusPaymentPending,
		model.InvoiceStatusPartial,
	})
	if err != nil {
		return err
	}
	if invoice == nil {
		return nil
	}

	unpaid, err := tx.CountUnpaidWorkOrders(ctx, projectID)
	if err != nil {
		return err
	}

	if unpaid > 0 {
		_, err := tx.SetInvoiceStatus(ctx, invoice.ID, []model.InvoiceStatus{
			model.InvoiceStatusDraft,
			model.InvoiceStatusSent,
			model.InvoiceStatusPaymentPending,
		}, model.InvoiceStatusPartial, nil)
		return err
	}

	changed, err := tx.SetInvoiceStatus(ctx, invoice.ID, []model.InvoiceStatus{
		model.InvoiceStatusDraft,
		model.InvoiceStatusSent,
		model.InvoiceStatusPaymentPending,
		model.InvoiceStatusPartial,
	}, model.InvoiceStatusPaid, &now)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	// Invoice reached PAID: a DONE project closes as a consequence,
	// inside the same transaction.
	_, err = tx.UpdateProjectStatus(ctx, projectID,
		[]model.ProjectStatus{model.ProjectStatusDone}, model.ProjectStatusClosed, nil)
	return err
}

func distinctProjects(items []model.WorkOrder) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	projects := make([]uuid.UUID, 0, 1)
	for _, wo := range items {
		if _, ok := seen[wo.ProjectID]; ok {
			continue
		}
		seen[wo.ProjectID] = struct{}{}
		projects = append(projects, wo.ProjectID)
	}
	return projects
}

// notifyContractors fans a notification out to contractor users,
// resolved by role query at send time.
func notifyContractors(ctx context.Context, tx Store, relatedID *uuid.UUID, kind model.NotificationType, title, message, link string, now time.Time) error {
	userIDs, err := tx.ListContractorUserIDs(ctx)
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
