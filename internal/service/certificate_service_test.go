package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/model"
)

type stubRenderer struct{}

func (stubRenderer) Generate(model.Certificate, model.WorkOrder, model.Project) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

type stubStorage struct {
	uploads int
}

func (s *stubStorage) Upload(ctx context.Context, data []byte, fileName string) (string, error) {
	s.uploads++
	return "/certificates/" + fileName, nil
}

func seedCertificate(f *fakeStore) *model.Certificate {
	project, ids := seedPendingProject(f, 100)
	cert := &model.Certificate{
		ID:          uuid.New(),
		WorkOrderID: ids[0],
		ProjectID:   project.ID,
		BranchID:    project.BranchID,
		Number:      "CERT-20250615-test",
		Type:        model.CertificateInspection,
		IssuedAt:    testNow,
	}
	f.certificates = append(f.certificates, cert)
	return cert
}

func TestRenderPDF(t *testing.T) {
	f := newFakeStore()
	cert := seedCertificate(f)
	svc := NewCertificateService(f, stubRenderer{}, &stubStorage{}, zerolog.Nop())

	result, err := svc.RenderPDF(context.Background(), cert.ID, contractorPrincipal())
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("empty pdf")
	}
	if result.FileName != "certificate-CERT-20250615-test.pdf" {
		t.Errorf("file name = %s", result.FileName)
	}
}

func TestAttachFile(t *testing.T) {
	f := newFakeStore()
	cert := seedCertificate(f)
	storage := &stubStorage{}
	svc := NewCertificateService(f, stubRenderer{}, storage, zerolog.Nop())

	updated, err := svc.AttachFile(context.Background(), cert.ID, []byte("scan"), "signed.pdf", contractorPrincipal())
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	if updated.FileURL == "" || cert.FileURL == "" {
		t.Fatalf("file url not recorded")
	}
	if storage.uploads != 1 {
		t.Fatalf("uploads = %d, want 1", storage.uploads)
	}
}

func TestAttachFileDeniedForClient(t *testing.T) {
	f := newFakeStore()
	cert := seedCertificate(f)
	storage := &stubStorage{}
	svc := NewCertificateService(f, stubRenderer{}, storage, zerolog.Nop())

	_, err := svc.AttachFile(context.Background(), cert.ID, []byte("scan"), "signed.pdf", clientPrincipal())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if storage.uploads != 0 {
		t.Fatalf("upload must not run for denied caller")
	}
}

func TestAttachFileRejectsEmpty(t *testing.T) {
	f := newFakeStore()
	cert := seedCertificate(f)
	svc := NewCertificateService(f, stubRenderer{}, &stubStorage{}, zerolog.Nop())

	_, err := svc.AttachFile(context.Background(), cert.ID, nil, "signed.pdf", contractorPrincipal())
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
