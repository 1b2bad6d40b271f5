package testutil

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Epoch is the fixed time used by fake clocks in tests.
var Epoch = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func mustExec(t *testing.T, db *gorm.DB, sql string, args ...any) {
	t.Helper()
	if err := db.Exec(sql, args...).Error; err != nil {
		t.Fatalf("seed failed: %v\n%s", err, sql)
	}
}

func SeedEventYear(t *testing.T, db *gorm.DB, id snowflake.ID, year int, active bool) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO event_years (id, year, name, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, year, "Sportsfest", active, Epoch)
}

func SeedProduct(t *testing.T, db *gorm.DB, id, eventYearID snowflake.ID, name, productType string, price int64) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO products (id, event_year_id, name, type, price_amount, active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, eventYearID, name, productType, price, true, Epoch)
}

func SeedTeam(t *testing.T, db *gorm.DB, id, orgID, eventYearID snowflake.ID, number int, name string) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO company_teams (id, org_id, event_year_id, team_number, name, is_paid, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, orgID, eventYearID, number, name, true, Epoch, Epoch)
}

func SeedPlayer(t *testing.T, db *gorm.DB, id, orgID, eventYearID snowflake.ID, first, last, gender, status string) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO players (id, org_id, event_year_id, first_name, last_name, gender, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, orgID, eventYearID, first, last, gender, status, Epoch)
}

func SeedRosterEntry(t *testing.T, db *gorm.DB, id, orgID, teamID, playerID snowflake.ID, captain bool) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO team_roster_entries (id, org_id, team_id, player_id, is_captain, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, orgID, teamID, playerID, captain, Epoch)
}

func SeedEventRosterEntry(t *testing.T, db *gorm.DB, id, orgID, teamID, playerID snowflake.ID, eventType string, starter, squadLeader bool) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO event_roster_entries (id, org_id, team_id, player_id, event_type, is_starter, squad_leader, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, orgID, teamID, playerID, eventType, starter, squadLeader, Epoch)
}

func SeedTentTracking(t *testing.T, db *gorm.DB, id, orgID, eventYearID, productID snowflake.ID, purchased int) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO tent_purchase_tracking (id, org_id, event_year_id, tent_product_id, quantity_purchased, max_allowed, remaining_allowed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 2, ?, ?, ?)`,
		id, orgID, eventYearID, productID, purchased, 2-purchased, Epoch, Epoch)
}

func SeedOrder(t *testing.T, db *gorm.DB, id, orgID, eventYearID snowflake.ID, number string, total int64, status string) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO orders (id, org_id, event_year_id, order_number, total_amount, status, fulfillment_status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, 'unfulfilled', ?, ?)`,
		id, orgID, eventYearID, number, total, status, Epoch, Epoch)
}

func SeedOrderItem(t *testing.T, db *gorm.DB, id, orderID, productID snowflake.ID, productType string, quantity int, unitPrice int64) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO order_items (id, order_id, product_id, product_name, product_type, quantity, unit_price, total_price, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, orderID, productID, productType, productType, quantity, unitPrice, unitPrice*int64(quantity), Epoch.Add(time.Duration(id)*time.Millisecond))
}

func SeedPayment(t *testing.T, db *gorm.DB, id, orderID, orgID snowflake.ID, amount int64, status string) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO payments (id, order_id, org_id, amount, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, orderID, orgID, amount, status, Epoch)
}
