package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"mydrive/internal/auth"
	"mydrive/internal/config"
	"mydrive/internal/handler"
	"mydrive/internal/repository"
	"mydrive/internal/service"
	"mydrive/internal/service/s3"
)

// openDatabase подключается к Postgres с повторами: при старте в
// docker-compose база может подниматься дольше приложения
func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	const attempts = 5

	var db *sqlx.DB
	var err error
	for i := 0; i < attempts; i++ {
		db, err = sqlx.Connect("postgres", cfg.Database.GetDSN())
		if err == nil {
			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(5 * time.Minute)
			return db, nil
		}
		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, attempts, err)
		time.Sleep(5 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
}

func runMigrations(cfg *config.Config) error {
	databaseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		log.Printf("Found dirty database state at version %d, forcing version", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func newRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	fileHandler *handler.FileHandler,
	directoryHandler *handler.DirectoryHandler,
	shareHandler *handler.ShareHandler,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Get("/users/me", userHandler.Me)
		r.Get("/users/me/quota", userHandler.GetQuota)

		r.Post("/files", fileHandler.UploadFile)
		r.Post("/files/folder", fileHandler.UploadFolder)
		r.Route("/files/{fileID}", func(r chi.Router) {
			r.Get("/", fileHandler.DownloadFile)
			r.Put("/rename", fileHandler.RenameFile)
			r.Delete("/", fileHandler.DeleteFile)
		})

		r.Post("/directories", directoryHandler.CreateDirectory)
		r.Get("/directories/root", directoryHandler.GetRoot)
		r.Route("/directories/{directoryID}", func(r chi.Router) {
			r.Get("/", directoryHandler.GetContent)
			r.Get("/path", directoryHandler.GetPath)
			r.Put("/rename", directoryHandler.RenameDirectory)
			r.Delete("/", directoryHandler.DeleteDirectory)
		})

		r.Route("/shares", func(r chi.Router) {
			r.Post("/", shareHandler.ShareItem)
			r.Get("/shared-with-me", shareHandler.SharedWithMe)
			r.Get("/shared-by-me", shareHandler.SharedByMe)
			r.Delete("/{shareID}", shareHandler.Revoke)
		})
	})

	return r
}

func main() {
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := openDatabase(appConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := runMigrations(appConfig); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	s3Config, err := s3.NewConfig(".s3.env")
	if err != nil {
		log.Fatalf("Failed to load S3 config: %v", err)
	}
	s3Client, err := s3.NewClient(s3Config)
	if err != nil {
		log.Fatalf("Failed to create S3 client: %v", err)
	}

	authConfig, err := auth.NewConfig(".auth.env")
	if err != nil {
		log.Fatalf("Failed to load auth config: %v", err)
	}
	tokens, err := auth.NewTokenIssuer(authConfig)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	fileRepo := repository.NewFileRepository(db)
	shareRepo := repository.NewSharedItemRepository(db)

	permissionService := service.NewPermissionService(fileRepo, directoryRepo, shareRepo)
	quotaService := service.NewQuotaService(userRepo)
	userService := service.NewUserService(userRepo)
	fileService := service.NewFileService(fileRepo, directoryRepo, shareRepo, s3Client, permissionService, quotaService)
	directoryService := service.NewDirectoryService(directoryRepo, fileRepo, shareRepo, fileService, permissionService)
	shareService := service.NewShareService(shareRepo, userRepo, permissionService)

	router := newRouter(
		handler.NewAuthHandler(userService, tokens),
		handler.NewUserHandler(userService, quotaService, tokens),
		handler.NewFileHandler(fileService, tokens),
		handler.NewDirectoryHandler(directoryService, tokens),
		handler.NewShareHandler(shareService, tokens),
	)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
