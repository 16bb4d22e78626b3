// Package sqlxrepos implements the core repositories over PostgreSQL via sqlx.
package sqlxrepos

import (
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/instacad/backoffice/core"
)

// repository carries the default executor. getExec lets a service thread its
// own transaction through a call instead.
type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// notDeleted filters out tombstoned rows.
const notDeleted = "deleted_at IS NULL"

// isUniqueViolation reports whether err is a psql unique-constraint violation
// on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == "23505" && pqErr.Constraint == constraint
	}
	return false
}
