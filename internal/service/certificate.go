package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/fireops-orders/internal/model"
)

// certificateEligible reports whether completing the work order earns
// a compliance certificate: either the originating request asked for
// one, or the work itself is an inspection or maintenance job.
func certificateEligible(wo *model.WorkOrder, linkedRequest *model.Request) bool {
	if linkedRequest != nil && linkedRequest.NeedsCertificate {
		return true
	}
	return wo.WorkType == model.WorkTypeInspection || wo.WorkType == model.WorkTypeMaintenance
}

func certificateTypeFor(workType model.WorkType) model.CertificateType {
	switch workType {
	case model.WorkTypeInspection:
		return model.CertificateInspection
	case model.WorkTypeMaintenance:
		return model.CertificateMaintenance
	default:
		return model.CertificateCompletion
	}
}

func certificateExpiry(recurring model.RecurringType, issuedAt time.Time) time.Time {
	switch recurring {
	case model.RecurringMonthly:
		return issuedAt.AddDate(0, 1, 0)
	case model.RecurringQuarterly:
		return issuedAt.AddDate(0, 3, 0)
	default:
		return issuedAt.AddDate(1, 0, 0)
	}
}

// issueCertificate creates the certificate for a just-completed work
// order inside the caller's transaction. At most one certificate ever
// exists per work order; replays and double completions are no-ops.
// The file URL stays empty until the signed scan is uploaded.
func issueCertificate(ctx context.Context, tx Store, wo *model.WorkOrder, now time.Time) (*model.Certificate, error) {
	exists, err := tx.CertificateExists(ctx, wo.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	var linkedRequest *model.Request
	if wo.LinkedRequestID != nil {
		linkedRequest, err = tx.GetRequest(ctx, *wo.LinkedRequestID)
		if err != nil {
			return nil, notFoundAs(err, "linked request")
		}
	}
	if !certificateEligible(wo, linkedRequest) {
		return nil, nil
	}

	cert := &model.Certificate{
		ID:          uuid.New(),
		WorkOrderID: wo.ID,
		ProjectID:   wo.ProjectID,
		BranchID:    wo.BranchID,
		Number:      documentNumber("CERT", now),
		Type:        certificateTypeFor(wo.WorkType),
		IssuedAt:    now,
		ExpiresAt:   certificateExpiry(wo.RecurringType, now),
		CreatedAt:   now,
	}
	if err := tx.CreateCertificate(ctx, cert); err != nil {
		return nil, err
	}

	if err := notifyBranchClients(ctx, tx, wo.BranchID, &cert.ID, model.NotifyCertificateIssued,
		"Certificate issued",
		fmt.Sprintf("certificate %s issued for %q", cert.Number, wo.Name),
		"/certificates/"+cert.ID.String(), now); err != nil {
		return nil, err
	}
	return cert, nil
}
