// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down the presence sweeper and DB connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Workers != nil && deps.Workers.PresenceSweeper != nil {
		deps.Workers.PresenceSweeper.Stop()
	}
	if deps.TeamlineMongoClient != nil {
		logger.Info("disconnecting Teamline MongoDB client")
		if err := deps.TeamlineMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
