// Package dummydb provides an in-memory store for service-level tests. It
// honors the same repository contracts as the sql implementation, including
// unique constraints and transactional rollback, via an undo journal kept per
// transaction.
package dummydb

import (
	"context"
	"database/sql"
	"sync"

	"github.com/pkg/errors"

	"github.com/instacad/backoffice/core"
	"github.com/instacad/backoffice/core/audit"
	"github.com/instacad/backoffice/core/course"
	"github.com/instacad/backoffice/core/ledger"
	"github.com/instacad/backoffice/core/student"
	"github.com/instacad/backoffice/core/user"
)

var errNotSupported = errors.New("dummydb: raw SQL not supported")

type DB struct {
	mu sync.RWMutex
	// txMu serializes transactions; the journal assumes no interleaving.
	txMu sync.Mutex

	users        map[string]*user.User
	usersByMob   map[string]string
	courses      map[string]*course.Course
	students     map[string]*student.Student
	byCode       map[string]string
	byAadhar     map[string]string
	byUserID     map[string]string
	studentOrder []string // insertion order; last entry feeds the code sequence
	enrollments  map[string]*student.Enrollment
	transactions map[string]*ledger.Transaction
	payments     map[string]*ledger.PaymentEntry
	events       map[string]*audit.Event

	failCreatePayment error
	failCreateStudent error
}

var _ core.DB = (*DB)(nil)

func Open() (*DB, error) {
	return &DB{
		users:        make(map[string]*user.User),
		usersByMob:   make(map[string]string),
		courses:      make(map[string]*course.Course),
		students:     make(map[string]*student.Student),
		byCode:       make(map[string]string),
		byAadhar:     make(map[string]string),
		byUserID:     make(map[string]string),
		enrollments:  make(map[string]*student.Enrollment),
		transactions: make(map[string]*ledger.Transaction),
		payments:     make(map[string]*ledger.PaymentEntry),
		events:       make(map[string]*audit.Event),
	}, nil
}

// FailNextPayment makes the next CreatePayment call return err.
func (db *DB) FailNextPayment(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failCreatePayment = err
}

// FailNextCreateStudent makes the next CreateStudent call return err.
func (db *DB) FailNextCreateStudent(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failCreateStudent = err
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	db.txMu.Lock()
	return &Tx{db: db}, nil
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errNotSupported
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNotSupported
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errNotSupported
}

func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errNotSupported
}

// Tx journals undo closures for every write made through it. Rollback applies
// them in reverse; Commit discards them.
type Tx struct {
	db   *DB
	undo []func()
	done bool
}

var _ core.DBTransactor = (*Tx)(nil)

func (tx *Tx) register(fn func()) {
	tx.undo = append(tx.undo, fn)
}

func (tx *Tx) Commit() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true
	tx.undo = nil
	tx.db.txMu.Unlock()
	return nil
}

func (tx *Tx) Rollback() error {
	if tx.done {
		return sql.ErrTxDone
	}
	tx.done = true

	tx.db.mu.Lock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.db.mu.Unlock()

	tx.undo = nil
	tx.db.txMu.Unlock()
	return nil
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, errNotSupported
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, errNotSupported
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (tx *Tx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errNotSupported
}

func (tx *Tx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return errNotSupported
}

// txOf extracts the journaling transaction from a repo call, if any.
func txOf(exec []core.DBExecutor) *Tx {
	if len(exec) > 0 {
		if tx, ok := exec[0].(*Tx); ok {
			return tx
		}
	}
	return nil
}
