package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fireops-orders/internal/model"
)

const workOrderColumns = `
	id, checklist_id, project_id, branch_id, name, description, price,
	scheduled_date, stage, type, work_type, recurring_type,
	occurrence_index, sort_order, is_completed, completed_at,
	linked_request_id, payment_status, payment_proof_url,
	payment_proof_type, payment_submitted_by, payment_submitted_at,
	payment_signature, payment_verified_by, payment_verified_at,
	created_at`

func (s *Store) GetWorkOrder(ctx context.Context, id uuid.UUID) (*model.WorkOrder, error) {
	var wo model.WorkOrder
	err := s.db.WithContext(ctx).Raw(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&wo).Error
	if err != nil {
		return nil, err
	}
	if wo.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &wo, nil
}

func (s *Store) CreateWorkOrder(ctx context.Context, wo *model.WorkOrder) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO work_orders (
			id, checklist_id, project_id, branch_id, name, description,
			price, scheduled_date, stage, type, work_type, recurring_type,
			occurrence_index, sort_order, is_completed, completed_at,
			linked_request_id, payment_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		wo.ID, wo.ChecklistID, wo.ProjectID, wo.BranchID, wo.Name, wo.Description,
		wo.Price, wo.ScheduledDate, wo.Stage, wo.Type, wo.WorkType, wo.RecurringType,
		wo.OccurrenceIndex, wo.SortOrder, wo.IsCompleted, wo.CompletedAt,
		wo.LinkedRequestID, wo.PaymentStatus, wo.CreatedAt,
	).Error
}

func (s *Store) ListWorkOrders(ctx context.Context, projectID uuid.UUID) ([]model.WorkOrder, error) {
	var items []model.WorkOrder
	err := s.db.WithContext(ctx).Raw(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE project_id = ?
		ORDER BY sort_order, created_at
	`, projectID).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListWorkOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]model.WorkOrder, error) {
	if len(ids) == 0 {
		return []model.WorkOrder{}, nil
	}
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	var items []model.WorkOrder
	err := s.db.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE id IN (%s)
		ORDER BY sort_order, created_at
	`, placeholders(len(ids))), args...).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListWorkOrdersByChecklist(ctx context.Context, checklistID uuid.UUID) ([]model.WorkOrder, error) {
	var items []model.WorkOrder
	err := s.db.WithContext(ctx).Raw(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE checklist_id = ?
		ORDER BY sort_order, created_at
	`, checklistID).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListOpenScheduledWorkOrders(ctx context.Context) ([]model.WorkOrder, error) {
	var items []model.WorkOrder
	err := s.db.WithContext(ctx).Raw(`
		SELECT ` + workOrderColumns + `
		FROM work_orders
		WHERE scheduled_date IS NOT NULL
			AND stage IN ('REQUESTED', 'SCHEDULED')
		ORDER BY scheduled_date
	`).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// SetWorkOrderStage is the transition primitive: the row only changes
// when it is still in the from stage. Entering COMPLETED also sets the
// completion flags.
func (s *Store) SetWorkOrderStage(ctx context.Context, id uuid.UUID, from, to model.WorkOrderStage, completedAt *time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Exec(`
		UPDATE work_orders
		SET stage = ?,
			is_completed = (? = 'COMPLETED'),
			completed_at = COALESCE(?, completed_at)
		WHERE id = ? AND stage = ?
	`, to, string(to), completedAt, id, from)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) ScheduleRequestedWorkOrders(ctx context.Context, projectID uuid.UUID) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE work_orders SET stage = 'SCHEDULED'
		WHERE project_id = ? AND stage = 'REQUESTED'
	`, projectID).Error
}

func (s *Store) SetWorkOrderPrice(ctx context.Context, id uuid.UUID, price float64) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE work_orders SET price = ?
		WHERE id = ? AND payment_status <> 'PAID'
	`, price, id).Error
}

func (s *Store) MarkPaymentSubmitted(ctx context.Context, ids []uuid.UUID, proofURL string, proofType model.ProofType, by uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	args := []interface{}{proofURL, proofType, by, at}
	for _, id := range ids {
		args = append(args, id)
	}
	return s.db.WithContext(ctx).Exec(fmt.Sprintf(`
		UPDATE work_orders
		SET payment_status = 'PENDING_VERIFICATION',
			payment_proof_url = ?,
			payment_proof_type = ?,
			payment_submitted_by = ?,
			payment_submitted_at = ?
		WHERE id IN (%s)
	`, placeholders(len(ids))), args...).Error
}

func (s *Store) MarkPaymentVerified(ctx context.Context, ids []uuid.UUID, signature string, by uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	args := []interface{}{signature, by, at}
	for _, id := range ids {
		args = append(args, id)
	}
	return s.db.WithContext(ctx).Exec(fmt.Sprintf(`
		UPDATE work_orders
		SET payment_status = 'PAID',
			payment_signature = ?,
			payment_verified_by = ?,
			payment_verified_at = ?
		WHERE id IN (%s) AND payment_status = 'PENDING_VERIFICATION'
	`, placeholders(len(ids))), args...).Error
}

func (s *Store) CountUnpaidWorkOrders(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(1) FROM work_orders
		WHERE project_id = ? AND payment_status <> 'PAID'
	`, projectID).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
