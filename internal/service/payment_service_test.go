package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/model"
)

func newPaymentService(f *fakeStore) *PaymentService {
	svc := NewPaymentService(f, zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return svc
}

// seedBillableProject returns an ACTIVE project with a SENT invoice and
// SCHEDULED work orders for the given prices.
func seedBillableProject(f *fakeStore, prices ...float64) (*model.Project, []uuid.UUID) {
	project, ids := seedPendingProject(f, prices...)
	f.projects[project.ID].Status = model.ProjectStatusActive
	for _, id := range ids {
		f.findWorkOrder(id).Stage = model.StageScheduled
	}
	f.invoices = append(f.invoices, &model.Invoice{
		ID:        uuid.New(),
		ProjectID: &project.ID,
		Status:    model.InvoiceStatusSent,
	})
	return f.projects[project.ID], ids
}

func submitProof(t *testing.T, svc *PaymentService, ids []uuid.UUID) {
	t.Helper()
	err := svc.SubmitProof(context.Background(), SubmitProofInput{
		WorkOrderIDs: ids,
		ProofURL:     "https://files.example/proof.pdf",
		ProofType:    model.ProofTypeFile,
		Principal:    clientPrincipal(),
	})
	if err != nil {
		t.Fatalf("SubmitProof: %v", err)
	}
}

func TestSubmitProof(t *testing.T) {
	f := newFakeStore()
	svc := newPaymentService(f)

	project, ids := seedBillableProject(f, 100, 200)
	seedUser(f, model.RoleContractor, uuid.New())

	submitProof(t, svc, ids)

	for _, id := range ids {
		wo := f.findWorkOrder(id)
		if wo.PaymentStatus != model.PaymentPendingVerification {
			t.Errorf("payment = %s, want PENDING_VERIFICATION", wo.PaymentStatus)
		}
		if wo.PaymentProofURL == nil || wo.PaymentSubmittedAt == nil {
			t.Errorf("proof fields not recorded")
		}
	}

	invoice, _ := f.FindInvoiceByProject(context.Background(), project.ID,
		[]model.InvoiceStatus{model.InvoiceStatusPaymentPending})
	if invoice == nil {
		t.Fatalf("invoice did not move to PAYMENT_PENDING")
	}
	if got := f.countNotifications(model.NotifyPaymentSubmitted); got != 1 {
		t.Errorf("contractor notifications = %d, want 1", got)
	}
}

func TestSubmitProofDeniedForContractor(t *testing.T) {
	f := newFakeStore()
	svc := newPaymentService(f)

	_, ids := seedBillableProject(f, 100)
	err := svc.SubmitProof(context.Background(), SubmitProofInput{
		WorkOrderIDs: ids,
		ProofURL:     "https://files.example/proof.pdf",
		ProofType:    model.ProofTypeFile,
		Principal:    contractorPrincipal(),
	})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestSubmitProofValidation(t *testing.T) {
	f := newFakeStore()
	svc := newPaymentService(f)
	_, ids := seedBillableProject(f, 100)

	cases := []struct {
		name  string
		input SubmitProofInput
	}{
		{"no ids", SubmitProofInput{ProofURL: "u", ProofType: model.ProofTypeFile, Principal: clientPrincipal()}},
		{"no proof", SubmitProofInput{WorkOrderIDs: ids, ProofType: model.ProofTypeFile, Principal: clientPrincipal()}},
		{"bad type", SubmitProofInput{WorkOrderIDs: ids, ProofURL: "u", ProofType: "scan", Principal: clientPrincipal()}},
	}
	for _, tc := range cases {
		if err := svc.SubmitProof(context.Background(), tc.input); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", tc.name, err)
		}
	}
}

func TestSubmitProofBatchAllOrNothing(t *testing.T) {
	f := newFakeStore()
	svc := newPaymentService(f)

	_, ids := seedBillableProject(f, 100)
	err := svc.SubmitProof(context.Background(), SubmitProofInput{
		WorkOrderIDs: append(ids, uuid.New()),
		ProofURL:     "https://files.example/proof.pdf",
		ProofType:    model.ProofTypeFile,
		Principal:    clientPrincipal(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if f.findWorkOrder(ids[0]).PaymentStatus != model.PaymentUnpaid {
		t.Fatalf("batch partially applied")
	}
}

func TestSubmitProofRejectsPaidItem(t *testing.T) {
	f := newFakeStore()
	svc := newPaymentService(f)

	_, ids := seedBillableProject(f, 100, 200)
	f.findWorkOrder(ids[1]).PaymentStatus = model.PaymentPaid

	err := svc.SubmitProof(context.Background(), SubmitProofInput{
		WorkOrderIDs: ids,
		ProofURL:     "https://files.example/proof.pdf",
		ProofType:    model.ProofTypeFile,
		Principal:    clientPrincipal(),
	})
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("err = %v, want state conflict", err)
	}
	if f.findWorkOrder(ids[0]).PaymentStatus != model.PaymentUnpaid {
		t.Fatalf("batch partially applied")
	}
}

func TestVerifyPaymentRequiresSignature(t *testing.T) {
	f := newFakeStore()
	svc := newPaymentService(f)

	_, ids := seedBillableProject(f, 100)
	submitProof(t, svc, ids)

	err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		WorkOrderIDs: ids,
		Principal:    contractorPrincipal(),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestVerifyPaymentWithoutProof(t *testing.T) {
	f := newFakeStore()
	svc := newPaymentService(f)

	_, ids := seedBillableProject(f, 100)
	err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		WorkOrderIDs: ids,
		SignatureURL: "https://files.example/signature.png",
		Principal:    contractorPrincipal(),
	})
	if !errors.Is(err, ErrNoPaymentProof) {
		t.Fatalf("err = %v, want ErrNoPaymentProof", err)
	}
}

func TestVerifyPaymentSettlesInvoice(t *testing.T) {
	f := newFakeStore()
	svc := newPaymentService(f)

	project, ids := seedBillableProject(f, 100, 200)
	submitProof(t, svc, ids)

	err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		WorkOrderIDs: ids,
		SignatureURL: "https://files.example/signature.png",
		Principal:    contractorPrincipal(),
	})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}

	for _, id := range ids {
		wo := f.findWorkOrder(id)
		if wo.PaymentStatus != model.PaymentPaid {
			t.Errorf("payment = %s, want PAID", wo.PaymentStatus)
		}
		if wo.PaymentSignature == nil || wo.PaymentVerifiedAt == nil {
			t.Errorf("verification fields not recorded")
		}
	}

	invoice, _ := f.FindInvoiceByProject(context.Background(), project.ID,
		[]model.InvoiceStatus{model.InvoiceStatusPaid})
	if invoice == nil {
		t.Fatalf("invoice did not settle")
	}
	if invoice.PaidAt == nil {
		t.Errorf("paid_at not set")
	}
}

func TestVerifyPaymentPartial(t *testing.T) {
	f := newFakeStore()
	svc := newPaymentService(f)

	project, ids := seedBillableProject(f, 100, 200)
	submitProof(t, svc, ids[:1])

	err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		WorkOrderIDs: ids[:1],
		SignatureURL: "https://files.example/signature.png",
		Principal:    contractorPrincipal(),
	})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}

	invoice, _ := f.FindInvoiceByProject(context.Background(), project.ID,
		[]model.InvoiceStatus{model.InvoiceStatusPartial})
	if invoice == nil {
		t.Fatalf("invoice did not move to PARTIAL")
	}
}

func TestVerifyPaymentClosesDoneProject(t *testing.T) {
	f := newFakeStore()
	svc := newPaymentService(f)

	project, ids := seedBillableProject(f, 100)
	project.Status = model.ProjectStatusDone
	submitProof(t, svc, ids)

	err := svc.VerifyPayment(context.Background(), VerifyPaymentInput{
		WorkOrderIDs: ids,
		SignatureURL: "https://files.example/signature.png",
		Principal:    contractorPrincipal(),
	})
	if err != nil {
		t.Fatalf("VerifyPayment: %v", err)
	}
	if project.Status != model.ProjectStatusClosed {
		t.Fatalf("project status = %s, want CLOSED", project.Status)
	}
}
