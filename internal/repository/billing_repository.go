package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/fireops-orders/internal/model"
)

const contractColumns = `
	id, project_id, number, status, total_value, start_at, end_at,
	signed_at, end_signature_url, end_signed_by, end_signed_at, created_at`

const invoiceColumns = `
	id, project_id, number, status, subtotal, tax_rate, tax_amount,
	total, due_date, paid_at, created_at`

func (s *Store) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := s.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &contract, nil
}

func (s *Store) CreateContract(ctx context.Context, c *model.Contract) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO contracts (
			id, project_id, number, status, total_value, start_at, end_at,
			signed_at, end_signature_url, end_signed_by, end_signed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.ProjectID, c.Number, c.Status, c.TotalValue, c.StartAt, c.EndAt,
		c.SignedAt, c.EndSignatureURL, c.EndSignedBy, c.EndSignedAt, c.CreatedAt,
	).Error
}

// GetSignedContractByProject returns nil when the project has no
// SIGNED contract.
func (s *Store) GetSignedContractByProject(ctx context.Context, projectID uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	err := s.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE project_id = ? AND status = 'SIGNED'
		ORDER BY created_at DESC
		LIMIT 1
	`, projectID).Scan(&contract).Error
	if err != nil {
		return nil, err
	}
	if contract.ID == uuid.Nil {
		return nil, nil
	}
	return &contract, nil
}

func (s *Store) AddContractValue(ctx context.Context, id uuid.UUID, delta float64) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE contracts SET total_value = total_value + ? WHERE id = ?
	`, delta, id).Error
}

func (s *Store) SetContractEndSignature(ctx context.Context, id uuid.UUID, signatureURL string, by uuid.UUID, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Exec(`
		UPDATE contracts
		SET status = 'ENDED',
			end_signature_url = ?,
			end_signed_by = ?,
			end_signed_at = ?
		WHERE id = ? AND status = 'SIGNED'
	`, signatureURL, by, at, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) ListExpiringContracts(ctx context.Context, endOnOrBefore time.Time) ([]model.Contract, error) {
	var contracts []model.Contract
	err := s.db.WithContext(ctx).Raw(`
		SELECT `+contractColumns+`
		FROM contracts
		WHERE status = 'SIGNED' AND end_at IS NOT NULL AND end_at <= ?
		ORDER BY end_at
	`, endOnOrBefore).Scan(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (s *Store) CreateInvoice(ctx context.Context, inv *model.Invoice) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO invoices (
			id, project_id, number, status, subtotal, tax_rate, tax_amount,
			total, due_date, paid_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID, inv.ProjectID, inv.Number, inv.Status, inv.Subtotal, inv.TaxRate,
		inv.TaxAmount, inv.Total, inv.DueDate, inv.PaidAt, inv.CreatedAt,
	).Error
}

func (s *Store) CreateInvoiceItem(ctx context.Context, item *model.InvoiceItem) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO invoice_items (
			id, invoice_id, work_order_id, description, amount, sort_order, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		item.ID, item.InvoiceID, item.WorkOrderID, item.Description,
		item.Amount, item.SortOrder, item.CreatedAt,
	).Error
}

func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := s.db.WithContext(ctx).Raw(`
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &invoice, nil
}

// FindInvoiceByProject returns the newest project invoice in one of
// the given statuses, or nil when none exists.
func (s *Store) FindInvoiceByProject(ctx context.Context, projectID uuid.UUID, statuses []model.InvoiceStatus) (*model.Invoice, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := []interface{}{projectID}
	for _, status := range statuses {
		args = append(args, status)
	}
	var invoice model.Invoice
	err := s.db.WithContext(ctx).Raw(fmt.Sprintf(`
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE project_id = ? AND status IN (%s)
		ORDER BY created_at DESC
		LIMIT 1
	`, placeholders(len(statuses))), args...).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == uuid.Nil {
		return nil, nil
	}
	return &invoice, nil
}

// RecomputeInvoiceTotals derives subtotal, tax and total from the
// invoice items. This is the only way invoice totals change.
func (s *Store) RecomputeInvoiceTotals(ctx context.Context, invoiceID uuid.UUID) (*model.Invoice, error) {
	err := s.db.WithContext(ctx).Exec(`
		UPDATE invoices
		SET subtotal = items.total,
			tax_amount = ROUND(items.total * tax_rate, 2),
			total = items.total + ROUND(items.total * tax_rate, 2)
		FROM (
			SELECT COALESCE(SUM(amount), 0) AS total
			FROM invoice_items
			WHERE invoice_id = ?
		) items
		WHERE invoices.id = ?
	`, invoiceID, invoiceID).Error
	if err != nil {
		return nil, err
	}
	return s.GetInvoice(ctx, invoiceID)
}

func (s *Store) SetInvoiceStatus(ctx context.Context, id uuid.UUID, from []model.InvoiceStatus, to model.InvoiceStatus, paidAt *time.Time) (bool, error) {
	args := []interface{}{to, paidAt, id}
	for _, status := range from {
		args = append(args, status)
	}
	result := s.db.WithContext(ctx).Exec(fmt.Sprintf(`
		UPDATE invoices
		SET status = ?, paid_at = COALESCE(?, paid_at)
		WHERE id = ? AND status IN (%s)
	`, placeholders(len(from))), args...)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
