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

func newContractService(f *fakeStore) *ContractService {
	svc := NewContractService(f, zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return svc
}

// seedContractedProject returns a project with a SIGNED contract and
// work orders in the given completion/payment state.
func seedContractedProject(f *fakeStore, completed, paid bool, prices ...float64) (*model.Contract, []uuid.UUID) {
	project, ids := seedPendingProject(f, prices...)
	f.projects[project.ID].Status = model.ProjectStatusDone
	for _, id := range ids {
		wo := f.findWorkOrder(id)
		if completed {
			wo.Stage = model.StageCompleted
			wo.IsCompleted = true
		}
		if paid {
			wo.PaymentStatus = model.PaymentPaid
		}
	}
	contract := &model.Contract{
		ID:        uuid.New(),
		ProjectID: &project.ID,
		Number:    "CT-20250615-test",
		Status:    model.ContractStatusSigned,
		StartAt:   project.StartDate,
		SignedAt:  testNow,
	}
	f.contracts = append(f.contracts, contract)
	return contract, ids
}

func TestSignEnd(t *testing.T) {
	f := newFakeStore()
	svc := newContractService(f)

	contract, _ := seedContractedProject(f, true, true, 100, 200)
	principal := clientPrincipal()

	signed, err := svc.SignEnd(context.Background(), contract.ID, "https://files.example/end.png", principal)
	if err != nil {
		t.Fatalf("SignEnd: %v", err)
	}
	if signed.Status != model.ContractStatusEnded {
		t.Fatalf("status = %s, want ENDED", signed.Status)
	}
	if signed.EndSignatureURL == nil || signed.EndSignedBy == nil || signed.EndSignedAt == nil {
		t.Fatalf("end signature fields not recorded")
	}
	if *signed.EndSignedBy != principal.UserID {
		t.Errorf("signed by %s, want %s", *signed.EndSignedBy, principal.UserID)
	}

	_, err = svc.SignEnd(context.Background(), contract.ID, "https://files.example/end.png", principal)
	if !errors.Is(err, ErrStateConflict) {
		t.Fatalf("second sign err = %v, want state conflict", err)
	}
}

func TestSignEndItemsNotCompleted(t *testing.T) {
	f := newFakeStore()
	svc := newContractService(f)

	contract, _ := seedContractedProject(f, false, true, 100)
	_, err := svc.SignEnd(context.Background(), contract.ID, "https://files.example/end.png", clientPrincipal())
	if !errors.Is(err, ErrItemsNotCompleted) {
		t.Fatalf("err = %v, want ErrItemsNotCompleted", err)
	}
	if errors.Is(err, ErrItemsNotPaid) {
		t.Fatalf("completion and payment gates must be distinct errors")
	}
}

func TestSignEndItemsNotPaid(t *testing.T) {
	f := newFakeStore()
	svc := newContractService(f)

	contract, _ := seedContractedProject(f, true, false, 100)
	_, err := svc.SignEnd(context.Background(), contract.ID, "https://files.example/end.png", clientPrincipal())
	if !errors.Is(err, ErrItemsNotPaid) {
		t.Fatalf("err = %v, want ErrItemsNotPaid", err)
	}
	if errors.Is(err, ErrItemsNotCompleted) {
		t.Fatalf("completion and payment gates must be distinct errors")
	}
}

// When items are both incomplete and unpaid the completion gate wins.
func TestSignEndCompletionCheckedFirst(t *testing.T) {
	f := newFakeStore()
	svc := newContractService(f)

	contract, _ := seedContractedProject(f, false, false, 100)
	_, err := svc.SignEnd(context.Background(), contract.ID, "https://files.example/end.png", clientPrincipal())
	if !errors.Is(err, ErrItemsNotCompleted) {
		t.Fatalf("err = %v, want ErrItemsNotCompleted", err)
	}
}

func TestSignEndRequiresSignature(t *testing.T) {
	f := newFakeStore()
	svc := newContractService(f)

	contract, _ := seedContractedProject(f, true, true, 100)
	_, err := svc.SignEnd(context.Background(), contract.ID, "", clientPrincipal())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSignEndDeniedForContractor(t *testing.T) {
	f := newFakeStore()
	svc := newContractService(f)

	contract, _ := seedContractedProject(f, true, true, 100)
	_, err := svc.SignEnd(context.Background(), contract.ID, "https://files.example/end.png", contractorPrincipal())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}
