package container

import (
	"github.com/hbox/claimtrack/cmd/claimsd/handlers"
	"github.com/hbox/claimtrack/cmd/claimsd/repository"
	"github.com/hbox/claimtrack/cmd/claimsd/service"
	"github.com/hbox/claimtrack/common/bootstrap"
)

// Container holds all initialized repositories, services and handlers
type Container struct {
	Components *bootstrap.Components

	// Repositories
	ClaimRepo     *repository.ClaimRepository
	ChangeLogRepo *repository.ChangeLogRepository

	// Services
	ClaimService   *service.ClaimService
	HistoryService *service.HistoryService
	AuthService    *service.AuthService

	// Handlers
	ClaimHandler   *handlers.ClaimHandler
	HistoryHandler *handlers.HistoryHandler
	AuthHandler    *handlers.AuthHandler
}

// NewContainer initializes all repositories, services and handlers once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	// Repositories
	claimRepo := repository.NewClaimRepository(components.DB)
	changeLogRepo := repository.NewChangeLogRepository(components.DB)

	// Services (dependencies first)
	claimService := service.NewClaimService(claimRepo, changeLogRepo, components.Cache, cfg.Cache, log)
	historyService := service.NewHistoryService(claimRepo, changeLogRepo, components.Cache, cfg.Cache, log)
	authService := service.NewAuthService(cfg.Auth, log)

	// Handlers
	claimHandler := handlers.NewClaimHandler(claimService, log)
	historyHandler := handlers.NewHistoryHandler(historyService, log)
	authHandler := handlers.NewAuthHandler(authService, log)

	return &Container{
		Components:     components,
		ClaimRepo:      claimRepo,
		ChangeLogRepo:  changeLogRepo,
		ClaimService:   claimService,
		HistoryService: historyService,
		AuthService:    authService,
		ClaimHandler:   claimHandler,
		HistoryHandler: historyHandler,
		AuthHandler:    authHandler,
	}, nil
}
