package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// sqlState extracts the SQLSTATE from either driver's error type
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return err != nil && sqlState(err) == uniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return err != nil && sqlState(err) == foreignKeyViolation
}

// ErrNoRowsAffected means an UPDATE matched nothing, usually a soft-deleted row
var ErrNoRowsAffected = errors.New("no rows affected")

// escapePrefix escapes LIKE wildcards in a literal prefix
func escapePrefix(s string) string {
	return likePrefixEscaper.Replace(s)
}

var likePrefixEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
