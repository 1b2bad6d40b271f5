package migration

import (
	"github.com/oldski/sportsfestDashboard-sub002/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if !cfg.MigrateOnStart {
			return nil
		}
		if conn.Dialector.Name() != "postgres" {
			log.Warn("skipping migrations for non-postgres database", zap.String("dialect", conn.Dialector.Name()))
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
