package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/model"
)

// CertificateRenderer renders a certificate document.
type CertificateRenderer interface {
	Generate(cert model.Certificate, workOrder model.WorkOrder, project model.Project) ([]byte, error)
}

// FileStorage stores uploaded certificate scans and returns a stable
// URL for them.
type FileStorage interface {
	Upload(ctx context.Context, data []byte, fileName string) (string, error)
}

// CertificateService exposes issued certificates: PDF rendering and
// the separate upload flow that fills the file URL after issuance.
type CertificateService struct {
	store Store
	pdf   CertificateRenderer
	files FileStorage
	log   zerolog.Logger
	now   func() time.Time
}

func NewCertificateService(store Store, pdf CertificateRenderer, files FileStorage, log zerolog.Logger) *CertificateService {
	return &CertificateService{store: store, pdf: pdf, files: files, log: log, now: time.Now}
}

func (s *CertificateService) GetCertificate(ctx context.Context, id uuid.UUID) (*model.Certificate, error) {
	cert, err := s.store.GetCertificate(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "certificate")
	}
	return cert, nil
}

type CertificatePDFResult struct {
	FileName string
	Content  []byte
}

// RenderPDF produces the printable certificate document.
func (s *CertificateService) RenderPDF(ctx context.Context, id uuid.UUID, principal model.Principal) (*CertificatePDFResult, error) {
	cert, err := s.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}
	wo, err := s.store.GetWorkOrder(ctx, cert.WorkOrderID)
	if err != nil {
		return nil, notFoundAs(err, "work order")
	}
	project, err := s.store.GetProject(ctx, cert.ProjectID)
	if err != nil {
		return nil, notFoundAs(err, "project")
	}

	content, err := s.pdf.Generate(*cert, *wo, *project)
	if err != nil {
		return nil, err
	}
	return &CertificatePDFResult{
		FileName: fmt.Sprintf("certificate-%s.pdf", cert.Number),
		Content:  content,
	}, nil
}

// AttachFile uploads the signed certificate scan and records its URL.
// The blob upload happens outside the transaction; only the URL write
// touches the store.
func (s *CertificateService) AttachFile(ctx context.Context, id uuid.UUID, data []byte, fileName string, principal model.Principal) (*model.Certificate, error) {
	if !principal.IsContractor() && !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	cert, err := s.GetCertificate(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.files.Upload(ctx, data, fileName)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetCertificateFileURL(ctx, id, url); err != nil {
		return nil, err
	}
	cert.FileURL = url

	s.log.Info().
		Str("certificate_id", id.String()).
		Str("file_url", url).
		Msg("certificate file attached")
	return cert, nil
}
