package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fireops-orders/internal/model"
)

const projectColumns = `
	id, branch_id, client_org_id, title, status, total_value,
	start_date, end_date, auto_renew, completed_at, created_at`

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := s.db.WithContext(ctx).Raw(`
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &project, nil
}

func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO projects (
			id, branch_id, client_org_id, title, status, total_value,
			start_date, end_date, auto_renew, completed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.BranchID, p.ClientOrgID, p.Title, p.Status, p.TotalValue,
		p.StartDate, p.EndDate, p.AutoRenew, p.CompletedAt, p.CreatedAt,
	).Error
}

func (s *Store) HasActiveProjectInBranch(ctx context.Context, branchID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(1) FROM projects
		WHERE branch_id = ? AND status = 'ACTIVE'
	`, branchID).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateProjectStatus applies the transition only when the current
// status is one of from, so a racing caller observes a stale
// precondition instead of double-applying the workflow.
func (s *Store) UpdateProjectStatus(ctx context.Context, id uuid.UUID, from []model.ProjectStatus, to model.ProjectStatus, completedAt *time.Time) (bool, error) {
	args := []interface{}{to, completedAt, id}
	for _, status := range from {
		args = append(args, status)
	}
	result := s.db.WithContext(ctx).Exec(fmt.Sprintf(`
		UPDATE projects
		SET status = ?, completed_at = COALESCE(?, completed_at)
		WHERE id = ? AND status IN (%s)
	`, placeholders(len(from))), args...)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) SetProjectTotalValue(ctx context.Context, id uuid.UUID, total float64) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE projects SET total_value = ? WHERE id = ?
	`, total, id).Error
}

func (s *Store) SumWorkOrderPrices(ctx context.Context, projectID uuid.UUID) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(price), 0) FROM work_orders WHERE project_id = ?
	`, projectID).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) CreateChecklist(ctx context.Context, c *model.Checklist) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO checklists (id, project_id, name, status, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.ProjectID, c.Name, c.Status, c.SortOrder, c.CreatedAt).Error
}

func (s *Store) ListChecklists(ctx context.Context, projectID uuid.UUID) ([]model.Checklist, error) {
	var checklists []model.Checklist
	err := s.db.WithContext(ctx).Raw(`
		SELECT id, project_id, name, status, sort_order, created_at
		FROM checklists
		WHERE project_id = ?
		ORDER BY sort_order, created_at
	`, projectID).Scan(&checklists).Error
	if err != nil {
		return nil, err
	}
	return checklists, nil
}

func (s *Store) SetChecklistStatus(ctx context.Context, id uuid.UUID, status model.ChecklistStatus) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE checklists SET status = ? WHERE id = ?
	`, status, id).Error
}

func (s *Store) MarkChecklistsInProgress(ctx context.Context, projectID uuid.UUID) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE checklists SET status = 'IN_PROGRESS'
		WHERE project_id = ? AND status = 'DRAFT'
	`, projectID).Error
}
