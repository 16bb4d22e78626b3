package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/audit"
)

type auditRepository struct {
	db *DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) *auditRepository {
	return &auditRepository{db: db}
}

// Events returns all audit events, for test assertions.
func (db *DB) Events() []audit.Event {
	db.mu.RLock()
	defer db.mu.RUnlock()

	events := make([]audit.Event, 0, len(db.events))
	for _, ev := range db.events {
		events = append(events, *ev)
	}
	return events
}

func (repo *auditRepository) CreateEvent(ctx context.Context, ev audit.Event, exec ...core.DBExecutor) (audit.Event, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ev.ID = uuid.New().String()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	e := ev
	repo.db.events[e.ID] = &e

	if tx := txOf(exec); tx != nil {
		tx.register(func() { delete(repo.db.events, e.ID) })
	}
	return ev, nil
}
