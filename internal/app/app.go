package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/portfolio/internal/config"
	"github.com/templui/portfolio/internal/db"
	"github.com/templui/portfolio/internal/markdown"
	"github.com/templui/portfolio/internal/repository"
	"github.com/templui/portfolio/internal/service"
	"github.com/templui/portfolio/internal/storage"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Storage          storage.Storage
	AuthService      *service.AuthService
	ProfileService   *service.ProfileService
	ProjectService   *service.ProjectService
	PortfolioService *service.PortfolioService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	projectRepository := repository.NewProjectRepository(database)
	fileRepository := repository.NewFileRepository(database)

	// Storage
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	fileService := service.NewFileService(fileRepository, fileStorage)
	md := markdown.NewParser()

	authService := service.NewAuthService(
		userRepository,
		service.NewPasswordHasher(cfg.BcryptCost),
		service.NewTokenService(cfg.JWTSecret, cfg.RefreshTokenSecret, cfg.JWTExpiry, cfg.RefreshTokenExpiry),
		service.NewResetTokens(userRepository, cfg.TokenPasswordResetExpiry),
		emailService,
		service.AuthConfig{
			FrontendURL:        cfg.FrontendURL,
			RevealUnknownEmail: cfg.RevealUnknownEmail,
			ResetTokenExpiry:   cfg.TokenPasswordResetExpiry,
		},
	)

	return &App{
		Cfg:              cfg,
		DB:               database,
		Storage:          fileStorage,
		AuthService:      authService,
		ProfileService:   service.NewProfileService(userRepository, fileService),
		ProjectService:   service.NewProjectService(projectRepository, fileService, md),
		PortfolioService: service.NewPortfolioService(userRepository, projectRepository, fileService, md),
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
