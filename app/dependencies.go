package app

import (
	"context"
	"fmt"

	"github.com/campusboard/server/config"
	"github.com/campusboard/server/handlers"
	"github.com/campusboard/server/middleware"
	"github.com/campusboard/server/models"
	"github.com/campusboard/server/repositories"
	"github.com/campusboard/server/repositories/postgres"
	"github.com/campusboard/server/services/authn"
	"github.com/campusboard/server/services/board"
	"github.com/campusboard/server/services/image"
	"github.com/campusboard/server/services/user"
	"github.com/campusboard/server/supabase"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Posts     repositories.PostRepository
	Comments  repositories.CommentRepository
	Users     repositories.UserRepository
	TxManager repositories.TransactionManager

	// Auth
	TokenValidator *supabase.Validator
	AuthMiddleware *middleware.AuthMiddleware

	// Services
	BoardService *board.Service
	UserService  *user.Service
	AuthClient   *authn.Client
	ImageService *image.Service

	// Handlers
	BoardHandler  *handlers.BoardHandler
	UserHandler   *handlers.UserHandler
	AuthHandler   *handlers.AuthHandler
	ImageHandler  *handlers.ImageHandler
	HealthHandler *handlers.HealthHandler
}

// NewDependencies connects to the database and wires up all application
// dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.InitSchema {
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	deps := NewDependenciesFromFactory(cfg, factory, logger)
	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesFromFactory wires everything on top of an existing
// repository factory
func NewDependenciesFromFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) *Dependencies {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.initRepositories()
	deps.initAuth(cfg)
	deps.initServices(cfg)
	deps.initHandlers(cfg)

	return deps
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Posts = repos.Posts
	d.Comments = repos.Comments
	d.Users = repos.Users
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	d.TokenValidator = supabase.NewValidator(supabase.Config{
		JWKSURL:            cfg.Supabase.JWKSURL,
		Issuer:             cfg.Supabase.Issuer,
		Audience:           cfg.Supabase.Audience,
		HTTPTimeout:        cfg.Supabase.JWKSTimeout,
		CacheTTL:           cfg.Supabase.KeyCacheTTL,
		MinRefreshInterval: cfg.Supabase.MinRefreshInterval,
		Leeway:             cfg.Supabase.Leeway,
	}, d.Logger)

	// Adapter converts supabase.ParsedClaims to middleware.Identity for AuthMiddleware
	d.AuthMiddleware = middleware.NewAuthMiddleware(&supabaseTokenValidatorAdapter{validator: d.TokenValidator}, d.Logger)

	d.Logger.Info("token validator initialized", zap.String("jwks_url", cfg.Supabase.JWKSURL))
}

func (d *Dependencies) initServices(cfg *config.Config) {
	d.BoardService = board.NewService(d.Posts, d.Comments, d.TxManager, d.Logger)
	d.UserService = user.NewService(d.Users, d.Posts, d.Comments, d.Logger)
	d.AuthClient = authn.NewClient(cfg.Supabase, d.Logger)
	d.ImageService = image.NewService(image.NewGeminiAnalyzer(cfg.Gemini, d.Logger), d.Logger)

	if cfg.Gemini.APIKey == "" {
		d.Logger.Warn("gemini api key not configured, image analysis will fail")
	}
}

func (d *Dependencies) initHandlers(cfg *config.Config) {
	d.BoardHandler = handlers.NewBoardHandler(d.BoardService, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.UserService, d.Logger)
	d.AuthHandler = handlers.NewAuthHandler(d.AuthClient, cfg.Supabase.CookieSecure, d.Logger)
	d.ImageHandler = handlers.NewImageHandler(d.ImageService, cfg.Server.MaxUploadBytes, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.TokenValidator, d.Logger)
}

// supabaseTokenValidatorAdapter adapts supabase.Validator to middleware.TokenValidator
type supabaseTokenValidatorAdapter struct {
	validator *supabase.Validator
}

func (a *supabaseTokenValidatorAdapter) ValidateToken(ctx context.Context, token string) (*middleware.Identity, error) {
	parsed, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Identity{
		UserID:   parsed.UserID,
		Email:    parsed.Email,
		Nickname: models.NicknameOrDefault(parsed.Nickname),
		Role:     parsed.Role,
	}, nil
}

func (a *supabaseTokenValidatorAdapter) IsTransportError(err error) bool {
	return supabase.IsTransportError(err)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
