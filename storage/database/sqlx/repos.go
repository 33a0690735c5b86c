// Package sqlxrepos implements the domain repositories on top of sqlx, with queries built by squirrel.
// The same queries run on postgres & SQLite.
package sqlxrepos

import (
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/foe05/HGMH-App/core"
)

// builder returns a statement builder using the placeholder format of the executor's driver.
func builder(exec core.DBExecutor) sq.StatementBuilderType {
	if exec.DriverName() == "postgres" {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// trapNoRowsErr maps "no rows" errors to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeValue returns a lower case LIKE pattern matching `s` anywhere. Use with ESCAPE '\'.
func likeValue(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// ilike matches any of `cols` case-insensitively against `s`.
func ilike(s string, cols ...string) sq.Or {
	val := likeValue(s)
	or := make(sq.Or, 0, len(cols))
	for _, col := range cols {
		or = append(or, sq.Expr("LOWER("+col+") LIKE ? ESCAPE '\\'", val))
	}
	return or
}

func orderBy(ordering []core.DBOrdering, columns map[string]string, defaults ...string) []string {
	if clauses := core.OrderBy(ordering, columns); len(clauses) > 0 {
		return clauses
	}
	return defaults
}
