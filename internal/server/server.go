package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"commentary-ai/config"
	"commentary-ai/internal/handler"
	"commentary-ai/internal/pipeline"
	"commentary-ai/internal/queue"
	"commentary-ai/internal/router"
	"commentary-ai/internal/taskrunner"
	"commentary-ai/log"
)

// StartBackend wires the pipeline service to its execution backend and
// serves the HTTP API. It blocks until the listener stops.
func StartBackend() error {
	svc, err := pipeline.NewService()
	if err != nil {
		return fmt.Errorf("init pipeline service: %w", err)
	}

	var scheduler handler.RunScheduler
	if config.Conf.Queue.Enabled {
		q := queue.NewQueue(svc, config.Conf.Queue)
		if err = q.Start(); err != nil {
			return fmt.Errorf("start run queue: %w", err)
		}
		defer q.Close()
		scheduler = q
		log.GetLogger().Info("using redis run queue",
			zap.String("addr", config.Conf.Queue.RedisAddr),
			zap.Int("workers", config.Conf.Queue.Workers))
	} else {
		runner := taskrunner.New(svc, taskrunner.DefaultConfig())
		defer runner.Close()
		scheduler = runner
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	router.SetupRouter(engine, handler.NewHandler(svc, scheduler))

	addr := fmt.Sprintf("%s:%d", config.Conf.Server.Host, config.Conf.Server.Port)
	log.GetLogger().Info("backend listening", zap.String("addr", addr))
	return engine.Run(addr)
}
