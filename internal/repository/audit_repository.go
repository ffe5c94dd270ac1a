package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fireops-orders/internal/model"
)

func (s *Store) GetRequest(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var request model.Request
	err := s.db.WithContext(ctx).Raw(`
		SELECT id, branch_id, project_id, title, status, needs_certificate,
			created_by, created_at
		FROM requests
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&request).Error
	if err != nil {
		return nil, err
	}
	if request.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &request, nil
}

func (s *Store) CreateRequest(ctx context.Context, r *model.Request) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO requests (
			id, branch_id, project_id, title, status, needs_certificate,
			created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.BranchID, r.ProjectID, r.Title, r.Status,
		r.NeedsCertificate, r.CreatedBy, r.CreatedAt,
	).Error
}

func (s *Store) CompleteOpenRequests(ctx context.Context, projectID uuid.UUID) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE requests SET status = 'COMPLETED'
		WHERE project_id = ? AND status = 'OPEN'
	`, projectID).Error
}

func (s *Store) ApprovePendingQuotations(ctx context.Context, projectID uuid.UUID) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE quotations SET status = 'APPROVED'
		WHERE project_id = ? AND status = 'PENDING'
	`, projectID).Error
}

func (s *Store) CertificateExists(ctx context.Context, workOrderID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(1) FROM certificates WHERE work_order_id = ?
	`, workOrderID).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateCertificate(ctx context.Context, c *model.Certificate) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO certificates (
			id, work_order_id, project_id, branch_id, number, type,
			issued_at, expires_at, file_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.WorkOrderID, c.ProjectID, c.BranchID, c.Number, c.Type,
		c.IssuedAt, c.ExpiresAt, c.FileURL, c.CreatedAt,
	).Error
}

func (s *Store) GetCertificate(ctx context.Context, id uuid.UUID) (*model.Certificate, error) {
	var cert model.Certificate
	err := s.db.WithContext(ctx).Raw(`
		SELECT id, work_order_id, project_id, branch_id, number, type,
			issued_at, expires_at, file_url, created_at
		FROM certificates
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&cert).Error
	if err != nil {
		return nil, err
	}
	if cert.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &cert, nil
}

func (s *Store) SetCertificateFileURL(ctx context.Context, id uuid.UUID, fileURL string) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE certificates SET file_url = ? WHERE id = ?
	`, fileURL, id).Error
}

func (s *Store) AppendActivity(ctx context.Context, a *model.Activity) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO activities (id, project_id, actor_id, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.ProjectID, a.ActorID, a.Action, a.Detail, a.CreatedAt).Error
}

// CreateNotification inserts unless an equal (user, related, type)
// notification already exists for the same calendar day. The insert
// and the dedup check are one statement, so a re-run cannot race
// itself into duplicates.
func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) (bool, error) {
	result := s.db.WithContext(ctx).Exec(`
		INSERT INTO notifications (
			id, user_id, type, title, message, link, related_id, created_at
		)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = ?
				AND type = ?
				AND related_id IS NOT DISTINCT FROM ?
				AND created_at::date = ?::date
		)
	`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Link, n.RelatedID, n.CreatedAt,
		n.UserID, n.Type, n.RelatedID, n.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := s.db.WithContext(ctx).Raw(`
		SELECT id, user_id, type, title, message, link, related_id, read_at, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit).Scan(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *Store) ListContractorUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Raw(`
		SELECT id FROM users WHERE role = 'CONTRACTOR' ORDER BY id
	`).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) ListClientUserIDs(ctx context.Context, branchID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Raw(`
		SELECT id FROM users
		WHERE role = 'CLIENT' AND branch_id = ?
		ORDER BY id
	`, branchID).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
