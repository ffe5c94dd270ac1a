package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	OrgID     uuid.UUID
	BranchID  *uuid.UUID
	Role      Role
	FullName  string
	Email     string
	CreatedAt time.Time
}
