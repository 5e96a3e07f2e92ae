package main

import (
	"os"

	"go.uber.org/zap"

	"commentary-ai/config"
	"commentary-ai/internal/deps"
	"commentary-ai/internal/server"
	"commentary-ai/internal/storage"
	"commentary-ai/log"
)

func main() {
	log.InitLogger()
	defer log.GetLogger().Sync()

	created, err := config.LoadOrCreateConfig()
	if err != nil {
		log.GetLogger().Error("failed to load config", zap.Error(err))
		return
	}
	if created {
		log.GetLogger().Info("wrote default config file, fill in provider credentials before starting runs")
	}

	if err = config.CheckConfig(); err != nil {
		log.GetLogger().Error("invalid config", zap.Error(err))
		return
	}

	storage.InitDB()

	// Runs left in a working stage by a previous process are unrecoverable.
	if count, err := storage.MarkStaleRuns(); err != nil {
		log.GetLogger().Warn("failed to mark stale runs", zap.Error(err))
	} else if count > 0 {
		log.GetLogger().Info("marked stale runs as failed", zap.Int64("count", count))
	}

	states := deps.ResolveDependencyInventory()
	log.GetLogger().Info(deps.FormatDependencyReport(states))
	if err = deps.ApplyResolvedPaths(states); err != nil {
		log.GetLogger().Error("dependency check failed", zap.Error(err))
		return
	}

	if err = server.StartBackend(); err != nil {
		log.GetLogger().Error("backend failed", zap.Error(err))
		os.Exit(1)
	}
}
