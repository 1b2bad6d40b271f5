package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect opens Postgres, the only production database: repositories use
// ON CONFLICT and the migrations are Postgres DDL. SQLite is accepted for
// local runs against a schema applied by hand.
func Dialect(cfg Config) (gorm.Dialector, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.Port,
			cfg.SSLMode,
		)), nil
	case "sqlite":
		name := cfg.Name
		if name == "" {
			name = "sportsfest.db"
		}
		return sqlite.Open(name), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.Type)
	}
}

func isPostgres(tx *gorm.DB) bool {
	return tx != nil && tx.Dialector != nil && tx.Dialector.Name() == "postgres"
}

// LockSuffix returns the row-lock clause for the connection's dialect.
// SQLite serializes writers and has no FOR UPDATE.
func LockSuffix(tx *gorm.DB) string {
	if isPostgres(tx) {
		return " FOR UPDATE"
	}
	return ""
}

// LockScope takes a transaction-scoped advisory lock on key, held until tx
// commits or rolls back. On SQLite the write lock already covers it.
func LockScope(tx *gorm.DB, key string) error {
	if !isPostgres(tx) {
		return nil
	}
	return tx.Exec(`SELECT pg_advisory_xact_lock(hashtextextended(?, 0))`, key).Error
}
