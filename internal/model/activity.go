package model

import (
	"time"

	"github.com/google/uuid"
)

// Activity is an append-only audit record attached to a project. Rows
// are never mutated or deleted.
type Activity struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	ActorID   uuid.UUID
	Action    string
	Detail    string
	CreatedAt time.Time
}
