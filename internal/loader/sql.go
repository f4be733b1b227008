package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/KaramelBytes/enrolpulse/internal/enrol"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Drivers accepted by OpenSQL.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenSQL opens a database with one of the supported drivers.
func OpenSQL(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q (use %s or %s)", driver, DriverSQLite, DriverPostgres)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s: empty dsn", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// LoadSQL reads records from a table. NULL cells become nil fields; Row is
// the 1-based position in result order.
func LoadSQL(ctx context.Context, db *sql.DB, table string, cols Columns) (*Result, error) {
	if table == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if cols == (Columns{}) {
		cols = DefaultColumns()
	}
	q := fmt.Sprintf("SELECT %s, %s, %s, %s FROM %s",
		quoteIdent(cols.Region), quoteIdent(cols.Age0To5), quoteIdent(cols.Age5To17), quoteIdent(cols.Age18Plus), quoteIdent(table))
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	res := &Result{Sources: []string{table}}
	row := 0
	for rows.Next() {
		var region sql.NullString
		var a, b, c sql.NullInt64
		if err := rows.Scan(&region, &a, &b, &c); err != nil {
			return nil, fmt.Errorf("%s row %d: scan: %w", table, row+1, err)
		}
		row++
		rec := enrol.Record{Row: row, Source: table}
		if region.Valid {
			rec.Region = enrol.Str(region.String)
		}
		if a.Valid {
			rec.Age0To5 = enrol.Int(a.Int64)
		}
		if b.Valid {
			rec.Age5To17 = enrol.Int(b.Int64)
		}
		if c.Valid {
			rec.Age18Plus = enrol.Int(c.Int64)
		}
		res.Records = append(res.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", table, err)
	}
	return res, nil
}
