package dataset

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Drivers accepted by LoadSQL.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// LoadSQL reads every row of table into a Dataset. Column types come from
// the driver's declared database type names.
func LoadSQL(ctx context.Context, driver, dsn, table string, opt Options) (*Dataset, error) {
	source := driver + ":" + table
	if !tableNameRe.MatchString(table) {
		return nil, &DataAccessError{Source: source, Err: fmt.Errorf("invalid table name %q", table)}
	}
	db, driver, err := OpenDB(driver, dsn)
	if err != nil {
		return nil, &DataAccessError{Source: source, Err: err}
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, &DataAccessError{Source: source, Err: fmt.Errorf("ping database: %w", err)}
	}

	query := "SELECT * FROM " + quoteTable(driver, table)
	if opt.MaxRows > 0 {
		query += " LIMIT " + strconv.Itoa(opt.MaxRows)
	}
	ds, err := QuerySQL(ctx, db, query)
	if err != nil {
		var dae *DataAccessError
		if errors.As(err, &dae) {
			dae.Source = source
			return nil, dae
		}
		return nil, &DataAccessError{Source: source, Err: err}
	}
	return ds, nil
}

// OpenDB opens a sqlx handle for one of the supported drivers and returns
// the canonical driver name.
func OpenDB(driver, dsn string) (*sqlx.DB, string, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		db, err := sqlx.Open("sqlite3", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite: %w", err)
		}
		return db, DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		config, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, "", fmt.Errorf("parse connection string: %w", err)
		}
		config.PreferSimpleProtocol = true
		return sqlx.NewDb(stdlib.OpenDB(*config), "pgx"), DriverPostgres, nil
	case "mysql":
		config, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, "", fmt.Errorf("parse connection string: %w", err)
		}
		config.ParseTime = true
		db, err := sqlx.Open("mysql", config.FormatDSN())
		if err != nil {
			return nil, "", fmt.Errorf("open mysql: %w", err)
		}
		return db, DriverMySQL, nil
	default:
		return nil, "", fmt.Errorf("unsupported driver %q (want sqlite3, postgres or mysql)", driver)
	}
}

// QuerySQL runs query and pivots the result set into typed columns. Every
// failure, including a result with no rows, is a *DataAccessError.
func QuerySQL(ctx context.Context, db *sqlx.DB, query string) (*Dataset, error) {
	ds, err := querySQL(ctx, db, query)
	if err != nil {
		return nil, &DataAccessError{Source: "query", Err: err}
	}
	if ds.IsEmpty() {
		return nil, &DataAccessError{Source: "query", Err: ErrNoData}
	}
	return ds, nil
}

func querySQL(ctx context.Context, db *sqlx.DB, query string) (*Dataset, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}
	dtypes := make([]DType, len(types))
	for i, ct := range types {
		dtypes[i] = sqlDType(ct.DatabaseTypeName())
	}
	values := make([][]any, len(types))
	for rows.Next() {
		rec, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range rec {
			values[i] = append(values[i], sqlValue(dtypes[i], v))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	cols := make([]Column, len(types))
	for i, ct := range types {
		c, err := NewColumn(ct.Name(), dtypes[i], values[i]...)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return New(cols...)
}

func quoteTable(driver, table string) string {
	q := `"`
	if driver == DriverMySQL {
		q = "`"
	}
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = q + p + q
	}
	return strings.Join(parts, ".")
}

// sqlDType maps a driver type name such as "VARCHAR(255)" or "int8" to a DType.
func sqlDType(name string) DType {
	base := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	base = strings.TrimPrefix(base, "UNSIGNED ")
	switch base {
	case "INTEGER", "INT", "INT2", "INT4", "INT8", "BIGINT", "SMALLINT", "TINYINT", "MEDIUMINT", "SERIAL", "BIGSERIAL", "YEAR":
		return Int64
	case "REAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "NUMERIC", "DECIMAL":
		return Float64
	case "DATE":
		return Date
	case "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return Datetime
	case "BOOL", "BOOLEAN":
		return Bool
	case "ENUM":
		return Categorical
	case "BLOB", "BYTEA", "BINARY", "VARBINARY", "LONGBLOB", "MEDIUMBLOB", "TINYBLOB":
		return Binary
	case "JSON", "JSONB", "TIME", "TIMETZ", "INTERVAL":
		return OtherType(strings.ToLower(base))
	default:
		return String
	}
}

var sqlTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// sqlValue coerces a scanned driver value into the column's element type.
// Values that cannot be coerced become nulls.
func sqlValue(dtype DType, v any) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok && dtype.Kind != KindOther {
		v = string(b)
	}
	switch dtype.Kind {
	case KindNumeric:
		switch x := v.(type) {
		case string:
			if dtype == Int64 {
				if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
					return n
				}
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil
			}
			nv, err := normalize(dtype, f)
			if err != nil {
				return nil
			}
			return nv
		case bool:
			if x {
				return 1.0
			}
			return 0.0
		}
		if _, err := normalize(dtype, v); err != nil {
			return nil
		}
		return v
	case KindTemporal:
		switch x := v.(type) {
		case time.Time:
			return x
		case string:
			for _, layout := range sqlTimeLayouts {
				if t, err := time.Parse(layout, x); err == nil {
					return t
				}
			}
		}
		return nil
	case KindBoolean:
		switch x := v.(type) {
		case bool:
			return x
		case int64:
			return x != 0
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil
			}
			return b
		}
		return nil
	case KindCategorical, KindText:
		switch x := v.(type) {
		case string:
			return x
		case time.Time:
			return x.Format(time.RFC3339)
		default:
			return fmt.Sprint(x)
		}
	default:
		return v
	}
}
