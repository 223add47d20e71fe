package main

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mkeremcifci/CloudDrive/internal/api"
	"github.com/mkeremcifci/CloudDrive/internal/config"
	"github.com/mkeremcifci/CloudDrive/internal/logging"
	"github.com/mkeremcifci/CloudDrive/internal/repositories"
)

func main() {
	logging.SetConfig(&logging.Config{
		Level:    zapcore.InfoLevel,
		FilePath: config.Envs.LogFile,
	})
	logger := logging.DefaultLogger()
	defer logger.Sync()

	repositories.ConnectDatabase(logger)

	r2 := config.Envs.R2
	if err := repositories.InitR2(r2.AccessKeyID, r2.SecretAccessKey, r2.AccountID, r2.BucketName, r2.Region, logger); err != nil {
		logger.Fatal("failed to initialize R2 client", zap.Error(err))
	}

	mux := api.SetupRouter(logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Envs.Port),
		Handler: mux,
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("starting CloudDrive server", zap.String("port", config.Envs.Port))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
