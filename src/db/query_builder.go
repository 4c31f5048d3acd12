package db

import (
	"fmt"
	"strings"
)

/*
QueryBuilder assembles a query from chunks whose argument count is not known
up front, numbering placeholders as it goes. The store uses it to build
multi-row VALUES upserts, one chunk per (field, value) pair.
*/
type QueryBuilder struct {
	sql  strings.Builder
	args []interface{}
}

// Add appends a chunk of SQL, replacing each `$?` with the next positional
// placeholder. The number of `$?` occurrences must match the number of args.
func (qb *QueryBuilder) Add(sql string, args ...interface{}) {
	numPlaceholders := strings.Count(sql, "$?")
	if numPlaceholders != len(args) {
		panic(fmt.Errorf("cannot add chunk to query; expected %d arguments but got %d", numPlaceholders, len(args)))
	}

	for _, arg := range args {
		sql = strings.Replace(sql, "$?", fmt.Sprintf("$%d", len(qb.args)+1), 1)
		qb.args = append(qb.args, arg)
	}

	qb.sql.WriteString(sql)
	qb.sql.WriteString("\n")
}

func (qb *QueryBuilder) String() string {
	return qb.sql.String()
}

func (qb *QueryBuilder) Args() []interface{} {
	return qb.args
}
