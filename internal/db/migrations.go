package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'project_status') THEN
			CREATE TYPE project_status AS ENUM ('PENDING', 'ACTIVE', 'DONE', 'CLOSED', 'CANCELLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'checklist_status') THEN
			CREATE TYPE checklist_status AS ENUM ('DRAFT', 'IN_PROGRESS', 'COMPLETED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'work_order_stage') THEN
			CREATE TYPE work_order_stage AS ENUM ('REQUESTED', 'SCHEDULED', 'IN_PROGRESS', 'FOR_REVIEW', 'COMPLETED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_status') THEN
			CREATE TYPE payment_status AS ENUM ('UNPAID', 'PENDING_VERIFICATION', 'PAID');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'invoice_status') THEN
			CREATE TYPE invoice_status AS ENUM ('DRAFT', 'SENT', 'PAYMENT_PENDING', 'PAID', 'PARTIAL');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_status') THEN
			CREATE TYPE contract_status AS ENUM ('SIGNED', 'ENDED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		org_id UUID NOT NULL,
		branch_id UUID,
		role VARCHAR(16) NOT NULL,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_users_role ON users (role);`,
	`CREATE INDEX IF NOT EXISTS idx_users_branch_id ON users (branch_id) WHERE branch_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		branch_id UUID NOT NULL,
		client_org_id UUID NOT NULL,
		title VARCHAR(255) NOT NULL,
		status project_status NOT NULL DEFAULT 'PENDING',
		total_value NUMERIC(18,2) NOT NULL DEFAULT 0,
		start_date DATE NOT NULL,
		end_date DATE,
		auto_renew BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_projects_active_branch
		ON projects (branch_id) WHERE status = 'ACTIVE';`,
	`CREATE INDEX IF NOT EXISTS idx_projects_branch_id ON projects (branch_id);`,
	`CREATE TABLE IF NOT EXISTS checklists (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL REFERENCES projects(id),
		name VARCHAR(255) NOT NULL,
		status checklist_status NOT NULL DEFAULT 'DRAFT',
		sort_order INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_checklists_project_id ON checklists (project_id);`,
	`CREATE TABLE IF NOT EXISTS work_orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		checklist_id UUID NOT NULL REFERENCES checklists(id),
		project_id UUID NOT NULL REFERENCES projects(id),
		branch_id UUID NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price NUMERIC(18,2) NOT NULL DEFAULT 0,
		scheduled_date DATE,
		stage work_order_stage NOT NULL DEFAULT 'REQUESTED',
		type VARCHAR(16) NOT NULL DEFAULT 'SCHEDULED',
		work_type VARCHAR(16) NOT NULL DEFAULT 'OTHER',
		recurring_type VARCHAR(16) NOT NULL DEFAULT 'ONCE',
		occurrence_index INT NOT NULL DEFAULT 0,
		sort_order INT NOT NULL DEFAULT 0,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ,
		linked_request_id UUID,
		payment_status payment_status NOT NULL DEFAULT 'UNPAID',
		payment_proof_url TEXT,
		payment_proof_type VARCHAR(8),
		payment_submitted_by UUID,
		payment_submitted_at TIMESTAMPTZ,
		payment_signature TEXT,
		payment_verified_by UUID,
		payment_verified_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_project_id ON work_orders (project_id);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_checklist_id ON work_orders (checklist_id);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_stage ON work_orders (stage);`,
	`CREATE INDEX IF NOT EXISTS idx_work_orders_scheduled_date
		ON work_orders (scheduled_date) WHERE scheduled_date IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID REFERENCES projects(id) ON DELETE SET NULL,
		number VARCHAR(64) NOT NULL,
		status contract_status NOT NULL DEFAULT 'SIGNED',
		total_value NUMERIC(18,2) NOT NULL DEFAULT 0,
		start_at DATE NOT NULL,
		end_at DATE,
		signed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		end_signature_url TEXT,
		end_signed_by UUID,
		end_signed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contracts_number ON contracts (number);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_project_id ON contracts (project_id) WHERE project_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID REFERENCES projects(id) ON DELETE SET NULL,
		number VARCHAR(64) NOT NULL,
		status invoice_status NOT NULL DEFAULT 'DRAFT',
		subtotal NUMERIC(18,2) NOT NULL DEFAULT 0,
		tax_rate NUMERIC(5,4) NOT NULL DEFAULT 0,
		tax_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		total NUMERIC(18,2) NOT NULL DEFAULT 0,
		due_date DATE NOT NULL,
		paid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_invoices_number ON invoices (number);`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_project_id ON invoices (project_id) WHERE project_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS invoice_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		invoice_id UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		work_order_id UUID REFERENCES work_orders(id),
		description VARCHAR(255) NOT NULL,
		amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		sort_order INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice_id ON invoice_items (invoice_id);`,
	`CREATE TABLE IF NOT EXISTS certificates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		work_order_id UUID NOT NULL REFERENCES work_orders(id),
		project_id UUID NOT NULL REFERENCES projects(id),
		branch_id UUID NOT NULL,
		number VARCHAR(64) NOT NULL,
		type VARCHAR(32) NOT NULL,
		issued_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		file_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_certificates_work_order ON certificates (work_order_id);`,
	`CREATE TABLE IF NOT EXISTS requests (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		branch_id UUID NOT NULL,
		project_id UUID REFERENCES projects(id) ON DELETE SET NULL,
		title VARCHAR(255) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'OPEN',
		needs_certificate BOOLEAN NOT NULL DEFAULT FALSE,
		created_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_requests_project_id ON requests (project_id) WHERE project_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS quotations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL REFERENCES projects(id),
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS activities (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		project_id UUID NOT NULL REFERENCES projects(id),
		actor_id UUID NOT NULL,
		action VARCHAR(64) NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_activities_project_id ON activities (project_id);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL,
		type VARCHAR(32) NOT NULL,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		related_id UUID,
		read_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_dedup
		ON notifications (user_id, related_id, type, created_at);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
