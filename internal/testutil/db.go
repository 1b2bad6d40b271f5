// Package testutil opens in-memory SQLite databases carrying the service
// schema, for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

var schema = []string{
	`CREATE TABLE event_years (
		id INTEGER PRIMARY KEY,
		year INTEGER NOT NULL,
		name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 0,
		deleted_at DATETIME,
		created_at DATETIME
	)`,
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY,
		event_year_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		price_amount INTEGER NOT NULL DEFAULT 0,
		max_per_org INTEGER,
		active BOOLEAN NOT NULL DEFAULT 1,
		metadata TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		event_year_id INTEGER NOT NULL,
		order_number TEXT NOT NULL UNIQUE,
		total_amount INTEGER NOT NULL,
		status TEXT NOT NULL,
		fulfillment_status TEXT NOT NULL DEFAULT 'unfulfilled',
		fulfilled_at DATETIME,
		metadata TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE order_items (
		id INTEGER PRIMARY KEY,
		order_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		product_name TEXT NOT NULL DEFAULT '',
		product_type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price INTEGER NOT NULL,
		total_price INTEGER NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE payments (
		id INTEGER PRIMARY KEY,
		order_id INTEGER NOT NULL,
		org_id INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		status TEXT NOT NULL,
		provider_ref TEXT,
		created_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_payments_provider_ref ON payments (order_id, provider_ref) WHERE provider_ref IS NOT NULL`,
	`CREATE TABLE payment_events (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		order_id INTEGER NOT NULL,
		provider TEXT NOT NULL,
		provider_event_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		received_at DATETIME NOT NULL,
		processed_at DATETIME,
		UNIQUE(provider, provider_event_id)
	)`,
	`CREATE TABLE tent_purchase_tracking (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		event_year_id INTEGER NOT NULL,
		tent_product_id INTEGER NOT NULL,
		quantity_purchased INTEGER NOT NULL,
		max_allowed INTEGER NOT NULL,
		remaining_allowed INTEGER NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE(org_id, event_year_id)
	)`,
	`CREATE TABLE company_teams (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		event_year_id INTEGER NOT NULL,
		order_id INTEGER,
		team_number INTEGER NOT NULL,
		name TEXT NOT NULL,
		is_paid BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE(org_id, event_year_id, team_number)
	)`,
	`CREATE TABLE players (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		event_year_id INTEGER NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT,
		gender TEXT,
		status TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE team_roster_entries (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		team_id INTEGER NOT NULL,
		player_id INTEGER NOT NULL,
		is_captain BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		UNIQUE(org_id, player_id)
	)`,
	`CREATE TABLE event_roster_entries (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		team_id INTEGER NOT NULL,
		player_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		is_starter BOOLEAN NOT NULL DEFAULT 0,
		squad_leader BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME
	)`,
	`CREATE TABLE audit_logs (
		id INTEGER PRIMARY KEY,
		org_id INTEGER,
		actor_type TEXT,
		actor_id TEXT,
		action TEXT NOT NULL,
		target_type TEXT,
		target_id TEXT,
		metadata TEXT,
		created_at DATETIME
	)`,
}

// OpenDB returns a fresh database holding the full schema. The pool is
// limited to one connection so transactions from concurrent goroutines
// serialize the way row locks would.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	return open(t, dsn, 1)
}

// OpenPooledDB returns a file-backed database served by several
// connections. Transactions begin IMMEDIATE and wait on the busy timeout,
// so concurrent writers contend for the database lock instead of sharing
// one connection.
func OpenPooledDB(t *testing.T, conns int) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pooled.db")
	dsn := "file:" + path + "?_txlock=immediate&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	return open(t, dsn, conns)
}

func open(t *testing.T, dsn string, conns int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

// NewNode returns a snowflake node for tests.
func NewNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

// AssertCount fails the test when the query does not return expected.
func AssertCount(t *testing.T, db *gorm.DB, query string, expected int64, args ...any) {
	t.Helper()
	var count int64
	if err := db.Raw(query, args...).Scan(&count).Error; err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected %d rows for %q, got %d", expected, query, count)
	}
}
