package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/ledger"
)

type ledgerRepository struct {
	db *DB
}

var _ ledger.Repository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *DB) *ledgerRepository {
	return &ledgerRepository{db: db}
}

// Transactions returns all ledger transactions, for test assertions.
func (db *DB) Transactions() []ledger.Transaction {
	db.mu.RLock()
	defer db.mu.RUnlock()

	trs := make([]ledger.Transaction, 0, len(db.transactions))
	for _, tr := range db.transactions {
		trs = append(trs, *tr)
	}
	return trs
}

// Payments returns all payment entries, for test assertions.
func (db *DB) Payments() []ledger.PaymentEntry {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entries := make([]ledger.PaymentEntry, 0, len(db.payments))
	for _, p := range db.payments {
		entries = append(entries, *p)
	}
	return entries
}

func (repo *ledgerRepository) CreateTransaction(ctx context.Context, tr ledger.Transaction, exec ...core.DBExecutor) (ledger.Transaction, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tr.ID = uuid.New().String()
	t := tr
	repo.db.transactions[t.ID] = &t

	if tx := txOf(exec); tx != nil {
		tx.register(func() { delete(repo.db.transactions, t.ID) })
	}
	return tr, nil
}

func (repo *ledgerRepository) CreatePayment(ctx context.Context, p ledger.PaymentEntry, exec ...core.DBExecutor) (ledger.PaymentEntry, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.db.failCreatePayment; err != nil {
		repo.db.failCreatePayment = nil
		return ledger.PaymentEntry{}, err
	}

	p.ID = uuid.New().String()
	entry := p
	repo.db.payments[entry.ID] = &entry

	if tx := txOf(exec); tx != nil {
		tx.register(func() { delete(repo.db.payments, entry.ID) })
	}
	return p, nil
}

func (repo *ledgerRepository) QueryPayments(ctx context.Context, studentID, enrollmentID string, exec ...core.DBExecutor) ([]ledger.PaymentEntry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	entries := make([]ledger.PaymentEntry, 0)
	for _, p := range repo.db.payments {
		if p.StudentID != studentID {
			continue
		}
		if enrollmentID != "" && p.EnrollmentID != enrollmentID {
			continue
		}
		entries = append(entries, *p)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}
