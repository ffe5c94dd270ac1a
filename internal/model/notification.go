package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotifyWorkOrderReminder NotificationType = "WORK_ORDER_REMINDER"
	NotifyWorkOrderStarting NotificationType = "WORK_ORDER_STARTING"
	NotifyReviewRequested   NotificationType = "REVIEW_REQUESTED"
	NotifyPaymentSubmitted  NotificationType = "PAYMENT_SUBMITTED"
	NotifyPaymentVerified   NotificationType = "PAYMENT_VERIFIED"
	NotifyContractExpiring  NotificationType = "CONTRACT_EXPIRING"
	NotifyCertificateIssued NotificationType = "CERTIFICATE_ISSUED"
	NotifyProjectApproved   NotificationType = "PROJECT_APPROVED"
	NotifyRenewalProposed   NotificationType = "RENEWAL_PROPOSED"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      NotificationType
	Title     string
	Message   string
	Link      string
	RelatedID *uuid.UUID
	ReadAt    *time.Time
	CreatedAt time.Time
}
