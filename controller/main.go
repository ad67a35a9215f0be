package controller

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shellsession/config"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, logger *zap.Logger) {
	local := NewLocalController(cfg, logger)
	sshController := NewSSHController(cfg, logger)

	shell := r.Group("/shell")
	{
		shell.GET("/local", local.StartLocalShell)

		shell.POST("/ssh", sshController.LoginSSH)
		shell.GET("/ssh/:id", sshController.StartSSHShell)
		shell.DELETE("/ssh/:id", sshController.LogoutSSH)
	}
}
