package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/config"
	"github.com/resqfood/resq/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node, log *zap.Logger) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-Postgres backends (sqlite in tests and local scratch
			// setups) get the schema via AutoMigrate; the decrement_stock
			// procedure is unavailable there and the guarded update path
			// takes over.
			if err := conn.AutoMigrate(allModels()...); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn, genID, log)
		}
		return nil
	}),
)
