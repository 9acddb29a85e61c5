package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"vcgen/internal/ir"
)

// SQLCache is a BlockCache backed by a database/sql.DB, selecting its driver
// from the DSN's scheme exactly as DBManager.Connect switched on a dbType
// string, repointed at one fixed table instead of ad-hoc caller queries.
type SQLCache struct {
	db *sql.DB

	getQuery    string
	upsertQuery string
}

// Open connects to dsn, inferring the driver from its scheme
// (sqlite:, postgres:/postgresql:, mysql:, sqlserver:/mssql:), creates the
// cache table if absent, and configures a small connection pool.
func Open(dsn string) (*SQLCache, error) {
	scheme, rest := splitScheme(dsn)

	var driverName, driverDSN, getQuery, upsertQuery string
	switch scheme {
	case "sqlite", "sqlite3":
		driverName, driverDSN = "sqlite", rest
		getQuery = "SELECT block FROM vc_cache WHERE qualified_name = ?"
		upsertQuery = "INSERT INTO vc_cache (qualified_name, block) VALUES (?, ?) " +
			"ON CONFLICT(qualified_name) DO UPDATE SET block = excluded.block"
	case "postgres", "postgresql":
		driverName, driverDSN = "postgres", dsn
		getQuery = "SELECT block FROM vc_cache WHERE qualified_name = $1"
		upsertQuery = "INSERT INTO vc_cache (qualified_name, block) VALUES ($1, $2) " +
			"ON CONFLICT(qualified_name) DO UPDATE SET block = excluded.block"
	case "mysql":
		driverName, driverDSN = "mysql", rest
		getQuery = "SELECT block FROM vc_cache WHERE qualified_name = ?"
		upsertQuery = "INSERT INTO vc_cache (qualified_name, block) VALUES (?, ?) " +
			"ON DUPLICATE KEY UPDATE block = VALUES(block)"
	case "sqlserver", "mssql":
		driverName, driverDSN = "sqlserver", dsn
		getQuery = "SELECT block FROM vc_cache WHERE qualified_name = @p1"
		upsertQuery = "MERGE vc_cache AS target USING (SELECT @p1 AS qualified_name, @p2 AS block) AS src " +
			"ON target.qualified_name = src.qualified_name " +
			"WHEN MATCHED THEN UPDATE SET block = src.block " +
			"WHEN NOT MATCHED THEN INSERT (qualified_name, block) VALUES (src.qualified_name, src.block);"
	default:
		return nil, fmt.Errorf("cache: unsupported DSN scheme %q", scheme)
	}

	db, err := sql.Open(driverName, driverDSN)
	if err != nil {
		return nil, fmt.Errorf("cache: opening %s: %w", driverName, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: pinging %s: %w", driverName, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS vc_cache (qualified_name VARCHAR(512) PRIMARY KEY, block BLOB)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating table: %w", err)
	}

	return &SQLCache{db: db, getQuery: getQuery, upsertQuery: upsertQuery}, nil
}

// splitScheme separates a DSN's leading "scheme:" or "scheme://" prefix
// from the remainder, tolerating DSNs (like sqlite's) that aren't valid
// URLs past the scheme.
func splitScheme(dsn string) (scheme, rest string) {
	i := strings.Index(dsn, ":")
	if i < 0 {
		return "", dsn
	}
	return dsn[:i], strings.TrimPrefix(dsn[i+1:], "//")
}

func (c *SQLCache) Get(ctx context.Context, qualifiedName string) (*ir.Block, bool, error) {
	row := c.db.QueryRowContext(ctx, c.getQuery, qualifiedName)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache: get %s: %w", qualifiedName, err)
	}
	b, err := decodeBlock(data)
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *SQLCache) Put(ctx context.Context, qualifiedName string, b *ir.Block) error {
	data, err := encodeBlock(b)
	if err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx, c.upsertQuery, qualifiedName, data); err != nil {
		return fmt.Errorf("cache: put %s: %w", qualifiedName, err)
	}
	return nil
}

func (c *SQLCache) Close() error { return c.db.Close() }
