// Package audit provides the append-only change log written alongside every
// mutation of an enrollment or student record. It replaces in-record history
// fields: events are keyed by entity and never updated.
package audit

import (
	"context"
	"time"

	"github.com/instacad/backoffice/core"
)

// Entities
const (
	EntityStudent    = "student"
	EntityEnrollment = "enrollment"
)

// Actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

type Event struct {
	ID        string    `json:"id"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Action    string    `json:"action"`
	EditorID  string    `json:"editor_id"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type Repository interface {
	CreateEvent(ctx context.Context, ev Event, exec ...core.DBExecutor) (Event, error)
}
