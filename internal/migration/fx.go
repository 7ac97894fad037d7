package migration

import (
	"github.com/smallbiznis/tradebook/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if !cfg.MigrateOnStart {
			log.Info("schema migration skipped", zap.String("dialect", conn.Dialector.Name()))
			return nil
		}
		if err := Apply(conn); err != nil {
			return err
		}
		log.Info("schema migrated", zap.String("dialect", conn.Dialector.Name()))
		return nil
	}),
)
