package postgres

import (
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Константы для лимитов запросов
const (
	// DefaultQueryLimit - лимит по умолчанию для запросов
	DefaultQueryLimit = 100
	// MaxQueryLimit - максимальный лимит для запросов
	MaxQueryLimit = 1000
)

// Константы для геометрии
const (
	// SRID4326 - WGS84 coordinate system
	SRID4326 = 4326
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// uniqueViolationConstraint reports whether err is a unique-constraint
// violation and which constraint fired. Both the pgx driver used in
// production and lib/pq used by the test helpers are recognised.
func uniqueViolationConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return pqErr.Constraint, true
	}

	return "", false
}

// clampLimit ограничивает лимит выборки
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
