package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/model"
)

// WorkOrderService governs a single work order's progress through
// REQUESTED -> SCHEDULED -> IN_PROGRESS -> FOR_REVIEW -> COMPLETED.
// Stages only move forward; entering COMPLETED recomputes the owning
// project's total and issues the compliance certificate when due.
type WorkOrderService struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewWorkOrderService(store Store, log zerolog.Logger) *WorkOrderService {
	return &WorkOrderService{store: store, log: log, now: time.Now}
}

// Transition advances a work order to newStage and applies the stage
// entry side effects in the same transaction.
func (s *WorkOrderService) Transition(ctx context.Context, workOrderID uuid.UUID, newStage model.WorkOrderStage, principal model.Principal) (*model.WorkOrder, error) {
	if model.StageRank(newStage) < 0 {
		return nil, fmt.Errorf("%w: unknown stage %q", ErrInvalidInput, newStage)
	}

	var updated *model.WorkOrder
	err := s.store.InTx(ctx, func(tx Store) error {
		wo, err := tx.GetWorkOrder(ctx, workOrderID)
		if err != nil {
			return notFoundAs(err, "work order")
		}

		if model.StageRank(newStage) <= model.StageRank(wo.Stage) {
			return ErrBackwardTransition
		}
		if wo.Type == model.WorkOrderTypeAdhoc && wo.Stage == model.StageRequested {
			return fmt.Errorf("%w: ad-hoc work order requires approval first", ErrStateConflict)
		}

		now := s.now()
		var completedAt *time.Time
		if newStage == model.StageCompleted {
			completedAt = &now
		}
		changed, err := tx.SetWorkOrderStage(ctx, workOrderID, wo.Stage, newStage, completedAt)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: work order stage changed concurrently", ErrStateConflict)
		}

		previous := wo.Stage
		wo.Stage = newStage
		if newStage == model.StageCompleted {
			wo.IsCompleted = true
			wo.CompletedAt = completedAt
		}

		switch newStage {
		case model.StageForReview:
			if err := notifyBranchClients(ctx, tx, wo.BranchID, &wo.ID, model.NotifyReviewRequested,
				"Review requested",
				fmt.Sprintf("work order %q is ready for your review", wo.Name),
				"/work-orders/"+wo.ID.String(), now); err != nil {
				return err
			}
		case model.StageCompleted:
			if err := s.onCompleted(ctx, tx, wo, now); err != nil {
				return err
			}
		}

		updated = wo
		return tx.AppendActivity(ctx, &model.Activity{
			ID:        uuid.New(),
			ProjectID: wo.ProjectID,
			ActorID:   principal.UserID,
			Action:    "WORK_ORDER_STAGE_CHANGED",
			Detail:    fmt.Sprintf("%q moved %s -> %s", wo.Name, previous, newStage),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// onCompleted applies the COMPLETED entry effects: project total
// recompute, certificate issuance, checklist roll-up.
func (s *WorkOrderService) onCompleted(ctx context.Context, tx Store, wo *model.WorkOrder, now time.Time) error {
	total, err := tx.SumWorkOrderPrices(ctx, wo.ProjectID)
	if err != nil {
		return err
	}
	if err := tx.SetProjectTotalValue(ctx, wo.ProjectID, total); err != nil {
		return err
	}

	cert, err := issueCertificate(ctx, tx, wo, now)
	if err != nil {
		return err
	}
	if cert != nil {
		s.log.Info().
			Str("work_order_id", wo.ID.String()).
			Str("certificate_id", cert.ID.String()).
			Str("type", string(cert.Type)).
			Msg("certificate issued")
	}

	siblings, err := tx.ListWorkOrdersByChecklist(ctx, wo.ChecklistID)
	if err != nil {
		return err
	}
	allDone := true
	for _, sibling := range siblings {
		if sibling.ID == wo.ID {
			continue
		}
		if sibling.Stage != model.StageCompleted {
			allDone = false
			break
		}
	}
	if allDone {
		if err := tx.SetChecklistStatus(ctx, wo.ChecklistID, model.ChecklistStatusCompleted); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePrice changes a work order's price and recomputes the project
// total. Paid work orders are locked.
func (s *WorkOrderService) UpdatePrice(ctx context.Context, workOrderID uuid.UUID, price float64, principal model.Principal) (*model.WorkOrder, error) {
	if !principal.IsContractor() && !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}

	var updated *model.WorkOrder
	err := s.store.InTx(ctx, func(tx Store) error {
		wo, err := tx.GetWorkOrder(ctx, workOrderID)
		if err != nil {
			return notFoundAs(err, "work order")
		}
		if wo.PaymentStatus == model.PaymentPaid {
			return ErrPriceLocked
		}

		previous := wo.Price
		if err := tx.SetWorkOrderPrice(ctx, workOrderID, price); err != nil {
			return err
		}
		wo.Price = price

		total, err := tx.SumWorkOrderPrices(ctx, wo.ProjectID)
		if err != nil {
			return err
		}
		if err := tx.SetProjectTotalValue(ctx, wo.ProjectID, total); err != nil {
			return err
		}

		updated = wo
		return tx.AppendActivity(ctx, &model.Activity{
			ID:        uuid.New(),
			ProjectID: wo.ProjectID,
			ActorID:   principal.UserID,
			Action:    "WORK_ORDER_PRICE_CHANGED",
			Detail:    fmt.Sprintf("%q price %.2f -> %.2f", wo.Name, previous, price),
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type CreateAdhocInput struct {
	ProjectID       uuid.UUID
	ChecklistID     uuid.UUID
	Name            string
	Description     string
	Price           float64
	WorkType        model.WorkType
	ScheduledDate   *time.Time
	LinkedRequestID *uuid.UUID
	Principal       model.Principal
}

// CreateAdhoc registers an ad-hoc work order in REQUESTED stage. It
// stays outside the billable schedule until approved.
func (s *WorkOrderService) CreateAdhoc(ctx context.Context, input CreateAdhocInput) (*model.WorkOrder, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	workType := input.WorkType
	if workType == "" {
		workType = model.WorkTypeOther
	}

	var created *model.WorkOrder
	err := s.store.InTx(ctx, func(tx Store) error {
		project, err := tx.GetProject(ctx, input.ProjectID)
		if err != nil {
			return notFoundAs(err, "project")
		}
		switch project.Status {
		case model.ProjectStatusClosed, model.ProjectStatusCancelled:
			return fmt.Errorf("%w: project is %s", ErrStateConflict, project.Status)
		}

		created = &model.WorkOrder{
			ID:              uuid.New(),
			ChecklistID:     input.ChecklistID,
			ProjectID:       project.ID,
			BranchID:        project.BranchID,
			Name:            input.Name,
			Description:     input.Description,
			Price:           input.Price,
			ScheduledDate:   input.ScheduledDate,
			Stage:           model.StageRequested,
			Type:            model.WorkOrderTypeAdhoc,
			WorkType:        workType,
			RecurringType:   model.RecurringOnce,
			OccurrenceIndex: 1,
			PaymentStatus:   model.PaymentUnpaid,
			LinkedRequestID: input.LinkedRequestID,
			CreatedAt:       s.now(),
		}
		if err := tx.CreateWorkOrder(ctx, created); err != nil {
			return err
		}

		return tx.AppendActivity(ctx, &model.Activity{
			ID:        uuid.New(),
			ProjectID: project.ID,
			ActorID:   input.Principal.UserID,
			Action:    "WORK_ORDER_REQUESTED",
			Detail:    fmt.Sprintf("ad-hoc work order %q requested, price %.2f", created.Name, created.Price),
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *WorkOrderService) GetWorkOrder(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	wo, err := s.store.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "work order")
	}
	return wo, nil
}
