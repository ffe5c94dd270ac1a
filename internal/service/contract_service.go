package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/fireops-orders/internal/model"
)

// ContractService handles the contract end signature, the hard gate
// that requires every work order under the project to be both
// completed and paid.
type ContractService struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewContractService(store Store, log zerolog.Logger) *ContractService {
	return &ContractService{store: store, log: log, now: time.Now}
}

// SignEnd records the end-of-engagement signature on a SIGNED
// contract. Incomplete and unpaid work orders produce distinct errors
// so the caller knows which gate failed.
func (s *ContractService) SignEnd(ctx context.Context, contractID uuid.UUID, signatureURL string, principal model.Principal) (*model.Contract, error) {
	if !principal.IsClient() && !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if signatureURL == "" {
		return nil, fmt.Errorf("%w: signature is required", ErrInvalidInput)
	}

	var signed *model.Contract
	err := s.store.InTx(ctx, func(tx Store) error {
		contract, err := tx.GetContract(ctx, contractID)
		if err != nil {
			return notFoundAs(err, "contract")
		}
		if contract.ProjectID == nil {
			return fmt.Errorf("%w: contract is not linked to a project", ErrStateConflict)
		}

		items, err := tx.ListWorkOrders(ctx, *contract.ProjectID)
		if err != nil {
			return err
		}
		for _, wo := range items {
			if wo.Stage != model.StageCompleted {
				return ErrItemsNotCompleted
			}
		}
		for _, wo := range items {
			if wo.PaymentStatus != model.PaymentPaid {
				return ErrItemsNotPaid
			}
		}

		now := s.now()
		changed, err := tx.SetContractEndSignature(ctx, contractID, signatureURL, principal.UserID, now)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: contract is already ended", ErrStateConflict)
		}

		contract.Status = model.ContractStatusEnded
		contract.EndSignatureURL = &signatureURL
		contract.EndSignedBy = &principal.UserID
		contract.EndSignedAt = &now
		signed = contract

		return tx.AppendActivity(ctx, &model.Activity{
			ID:        uuid.New(),
			ProjectID: *contract.ProjectID,
			ActorID:   principal.UserID,
			Action:    "CONTRACT_END_SIGNED",
			Detail:    fmt.Sprintf("contract %s end-signed", contract.Number),
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return signed, nil
}

func (s *ContractService) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.store.GetContract(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "contract")
	}
	return contract, nil
}
