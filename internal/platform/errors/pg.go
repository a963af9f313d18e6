package errors

import (
	stderrs "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// FromPostgresf wraps err as a storage error. A *pgconn.PgError in the chain
// contributes its column as the field and its SQLSTATE as the op. nil stays nil
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	out := Wrap(err, ErrorCodeStorage, fmt.Sprintf(format, a...))
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return out
	}
	if pgErr.ColumnName != "" {
		out = WithField(out, pgErr.ColumnName)
	}
	return WithOp(out, "pg:"+pgErr.Code)
}
