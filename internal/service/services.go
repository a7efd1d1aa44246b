package service

import (
	"github.com/dom/wedge-builds/internal/catalog"
	"github.com/dom/wedge-builds/internal/config"
	"github.com/dom/wedge-builds/internal/repository"
	"go.uber.org/zap"
)

type Services struct {
	Auth         *AuthService
	Profile      *ProfileService
	Build        *BuildService
	Draft        *DraftService
	Notification *NotificationService
	Team         *TeamService
	Catalog      *CatalogService
}

func NewServices(repos *repository.Repositories, cat *catalog.Catalog, cfg *config.Config, logger *zap.Logger) *Services {
	return &Services{
		Auth:         NewAuthService(repos.User, repos.Session, cfg, logger),
		Profile:      NewProfileService(repos.User, repos.Build, cfg.BackendTimeout),
		Build:        NewBuildService(repos.Build, cat, cfg.BackendTimeout, logger),
		Draft:        NewDraftService(repos.Draft, cat, cfg.BackendTimeout, logger),
		Notification: NewNotificationService(repos.Notification, cfg.BackendTimeout, logger),
		Team:         NewTeamService(cat),
		Catalog:      NewCatalogService(cat),
	}
}
