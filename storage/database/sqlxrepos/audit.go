package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/audit"
)

type auditRepository struct {
	repository
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(exec core.DBExecutor) *auditRepository {
	return &auditRepository{repository{exec: exec}}
}

func (repo auditRepository) CreateEvent(ctx context.Context, ev audit.Event, exec ...core.DBExecutor) (audit.Event, error) {
	ev.ID = uuid.New().String()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	q := `
INSERT INTO audit_events (id, entity, entity_id, action, editor_id, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.getExec(exec).ExecContext(ctx, q,
		ev.ID, ev.Entity, ev.EntityID, ev.Action,
		null.NewString(ev.EditorID, ev.EditorID != ""), ev.Note, ev.CreatedAt.UTC())
	if err != nil {
		return audit.Event{}, errors.Wrap(err, "inserting audit event")
	}
	return ev, nil
}
