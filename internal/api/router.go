package api

import (
	"fmt"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/mkeremcifci/CloudDrive/docs"

	"github.com/mkeremcifci/CloudDrive/internal/api/handlers"
	"github.com/mkeremcifci/CloudDrive/internal/api/middleware"
	"github.com/mkeremcifci/CloudDrive/internal/broker"
	"github.com/mkeremcifci/CloudDrive/internal/config"
	"github.com/mkeremcifci/CloudDrive/internal/repositories"
	"github.com/rs/cors"
)

func SetupRouter(logger *zap.Logger) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(config.Envs.CorsConfig)

	b := broker.New(repositories.R2Store{}, repositories.LinkStore{}, logger)
	storage := &handlers.StorageHandler{Broker: b, Logger: logger}
	files := &handlers.FilesHandler{Broker: b, Logger: logger}
	share := &handlers.ShareHandler{Logger: logger}

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	authMux := http.NewServeMux()
	authMux.HandleFunc("/sign-up", handlers.RegisterUser)
	authMux.HandleFunc("/login", handlers.LoginUser)
	authMux.HandleFunc("/google/login", handlers.HandleGoogleLogin)
	authMux.HandleFunc("/google/callback", handlers.HandleGoogleCallback)

	mainMux.Handle("/api/v1/auth/",
		http.StripPrefix("/api/v1/auth", authMux),
	)

	// The storage endpoint authenticates per action: public_download is
	// anonymous, everything else needs a bearer token. It sits outside
	// AuthMiddleware so the handler can make that call itself.
	mainMux.HandleFunc("POST /api/v1/storage", storage.Handle)

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()

	fileMux := http.NewServeMux()
	fileMux.HandleFunc("POST /folder", files.CreateFolder)
	fileMux.HandleFunc("POST /complete", files.CompleteUpload)
	fileMux.HandleFunc("PATCH /{id}", files.Update)
	fileMux.HandleFunc("DELETE /{id}", files.Delete)

	protectedMux.HandleFunc("GET /files", files.List)
	protectedMux.Handle("/files/",
		http.StripPrefix("/files", fileMux),
	)

	protectedMux.HandleFunc("POST /share", share.Create)
	protectedMux.HandleFunc("GET /share", share.List)

	protectedMux.HandleFunc("/auth/logout", handlers.Logout)

	mainMux.Handle("/api/v1/",
		http.StripPrefix(
			"/api/v1",
			middleware.AuthMiddleware(protectedMux),
		),
	)

	logger.Info("router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Logger(logger, handler)
	return handler
}
