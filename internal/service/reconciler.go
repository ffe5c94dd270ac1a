package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/model"
)

var workOrderReminderDays = map[int]bool{5: true, 3: true, 1: true, 0: true}
var contractReminderDays = map[int]bool{10: true, 5: true, 3: true, 1: true}

// Reconciler runs once per period and applies date-driven transitions
// independent of user action: work-order reminders, day-zero starts
// and contract expiry notices. The per-day notification dedup in the
// store makes a repeated run a no-op.
type Reconciler struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewReconciler(store Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, log: log, now: time.Now}
}

// Run performs one reconciliation pass in a single transaction.
func (r *Reconciler) Run(ctx context.Context) error {
	today := dateOnly(r.now())

	var started, reminders int
	err := r.store.InTx(ctx, func(tx Store) error {
		items, err := tx.ListOpenScheduledWorkOrders(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			n, transitioned, err := r.reconcileWorkOrder(ctx, tx, &items[i], today)
			if err != nil {
				return err
			}
			reminders += n
			if transitioned {
				started++
			}
		}

		horizon := today.AddDate(0, 0, 10)
		contracts, err := tx.ListExpiringContracts(ctx, horizon)
		if err != nil {
			return err
		}
		for i := range contracts {
			n, err := r.reconcileContract(ctx, tx, &contracts[i], today)
			if err != nil {
				return err
			}
			reminders += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().
		Int("reminders", reminders).
		Int("started", started).
		Msg("reconciler pass finished")
	return nil
}

// reconcileWorkOrder emits due reminders for one open work order and
// auto-starts it on its scheduled day.
func (r *Reconciler) reconcileWorkOrder(ctx context.Context, tx Store, wo *model.WorkOrder, today time.Time) (int, bool, error) {
	if wo.ScheduledDate == nil {
		return 0, false, nil
	}
	diff := daysUntil(today, *wo.ScheduledDate)
	if !workOrderReminderDays[diff] {
		return 0, false, nil
	}

	sent := 0
	contractorIDs, err := tx.ListContractorUserIDs(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, userID := range contractorIDs {
		created, err := tx.CreateNotification(ctx, &model.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      model.NotifyWorkOrderReminder,
			Title:     "Upcoming work order",
			Message:   fmt.Sprintf("%q is scheduled in %d day(s)", wo.Name, diff),
			Link:      "/work-orders/" + wo.ID.String(),
			RelatedID: &wo.ID,
			CreatedAt: r.now(),
		})
		if err != nil {
			return 0, false, err
		}
		if created {
			sent++
		}
	}

	if diff != 0 {
		return sent, false, nil
	}

	clientIDs, err := tx.ListClientUserIDs(ctx, wo.BranchID)
	if err != nil {
		return 0, false, err
	}
	for _, userID := range clientIDs {
		created, err := tx.CreateNotification(ctx, &model.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      model.NotifyWorkOrderStarting,
			Title:     "Work starting today",
			Message:   fmt.Sprintf("%q starts today", wo.Name),
			Link:      "/work-orders/" + wo.ID.String(),
			RelatedID: &wo.ID,
			CreatedAt: r.now(),
		})
		if err != nil {
			return 0, false, err
		}
		if created {
			sent++
		}
	}

	if wo.Stage != model.StageScheduled {
		return sent, false, nil
	}
	changed, err := tx.SetWorkOrderStage(ctx, wo.ID, model.StageScheduled, model.StageInProgress, nil)
	if err != nil {
		return 0, false, err
	}
	if !changed {
		return sent, false, nil
	}
	if err := tx.AppendActivity(ctx, &model.Activity{
		ID:        uuid.New(),
		ProjectID: wo.ProjectID,
		ActorID:   uuid.Nil,
		Action:    "WORK_ORDER_STAGE_CHANGED",
		Detail:    fmt.Sprintf("%q auto-started on its scheduled date", wo.Name),
		CreatedAt: r.now(),
	}); err != nil {
		return 0, false, err
	}
	return sent, true, nil
}

// reconcileContract emits expiry reminders: {10,5,3,1} days out for
// contractors, 1 day out for the client branch.
func (r *Reconciler) reconcileContract(ctx context.Context, tx Store, contract *model.Contract, today time.Time) (int, error) {
	if contract.EndAt == nil {
		return 0, nil
	}
	diff := daysUntil(today, *contract.EndAt)
	if !contractReminderDays[diff] {
		return 0, nil
	}

	sent := 0
	contractorIDs, err := tx.ListContractorUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	for _, userID := range contractorIDs {
		created, err := tx.CreateNotification(ctx, &model.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      model.NotifyContractExpiring,
			Title:     "Contract expiring",
			Message:   fmt.Sprintf("contract %s expires in %d day(s)", contract.Number, diff),
			Link:      "/contracts/" + contract.ID.String(),
			RelatedID: &contract.ID,
			CreatedAt: r.now(),
		})
		if err != nil {
			return 0, err
		}
		if created {
			sent++
		}
	}

	if diff != 1 || contract.ProjectID == nil {
		return sent, nil
	}
	project, err := tx.GetProject(ctx, *contract.ProjectID)
	if err != nil {
		return 0, notFoundAs(err, "project")
	}
	clientIDs, err := tx.ListClientUserIDs(ctx, project.BranchID)
	if err != nil {
		return 0, err
	}
	for _, userID := range clientIDs {
		created, err := tx.CreateNotification(ctx, &model.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      model.NotifyContractExpiring,
			Title:     "Contract expiring",
			Message:   fmt.Sprintf("contract %s expires tomorrow", contract.Number),
			Link:      "/contracts/" + contract.ID.String(),
			RelatedID: &contract.ID,
			CreatedAt: r.now(),
		})
		if err != nil {
			return 0, err
		}
		if created {
			sent++
		}
	}
	return sent, nil
}

func daysUntil(today, target time.Time) int {
	return int(dateOnly(target).Sub(dateOnly(today)).Hours() / 24)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
