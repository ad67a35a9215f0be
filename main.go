package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shellsession/config"
	"shellsession/controller"
	"shellsession/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	flag.UintVar(&cfg.Port, "port", cfg.Port, "The port to listen on")
	flag.Parse()

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.LogDev})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	controller.SetupRoutes(r, cfg, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("started", zap.String("addr", addr), zap.String("shell", cfg.Shell), zap.String("cwd", cfg.Cwd))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
