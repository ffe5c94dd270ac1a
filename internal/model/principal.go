package model

import "github.com/google/uuid"

type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleContractor Role = "CONTRACTOR"
	RoleAdmin      Role = "ADMIN"
)

// Principal is the authenticated caller, extracted from the access
// token by the auth middleware.
type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   Role
}

func (p Principal) IsClient() bool     { return p.Role == RoleClient }
func (p Principal) IsContractor() bool { return p.Role == RoleContractor }
func (p Principal) IsAdmin() bool      { return p.Role == RoleAdmin }
