package main

import (
	"log/slog"

	"github.com/akinalp/leasehub/config"
	"github.com/akinalp/leasehub/services"
)

// Services holds every service instance.
type Services struct {
	Auth          services.AuthService
	Unread        services.UnreadService
	KPI           services.KPIService
	Notifier      services.NotificationDispatcher
	MessageEvents services.MessageEvents
	Conversation  services.ConversationService
	Message       services.MessageService
	Upload        services.UploadService
	Property      services.PropertyService
	Deal          services.DealService
}

// initCoreServices builds the services the socket layer depends on. They
// must exist before initSockets.
func initCoreServices(cfg *config.Config, repos *Repositories, infra *Infra, logger *slog.Logger) *Services {
	return &Services{
		Auth:   services.NewAuthService(repos.User, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry),
		Unread: services.NewUnreadService(repos.Conversation, infra.Cache, infra.CacheTTL, logger),
	}
}

// initServices completes svcs once the sockets exist. The sockets satisfy
// the broadcaster and presence interfaces the event services consume.
func initServices(
	cfg *config.Config,
	svcs *Services,
	repos *Repositories,
	infra *Infra,
	sockets *Sockets,
	logger *slog.Logger,
) {
	svcs.KPI = services.NewKPIService(repos.Property, repos.Deal, infra.Cache, infra.CacheTTL, logger)
	dashboardEvents := services.NewDashboardEvents(svcs.KPI, sockets.Dashboard, infra.Publisher, logger)

	svcs.Notifier = services.NewNotificationDispatcher(repos.Conversation, repos.User, infra.Email, sockets.Messaging, logger)
	svcs.MessageEvents = services.NewMessageEvents(svcs.Unread, svcs.Notifier, sockets.Messaging, infra.Publisher, logger)

	svcs.Conversation = services.NewConversationService(repos.Conversation, svcs.Unread, svcs.MessageEvents)
	svcs.Message = services.NewMessageService(repos.Message, repos.Conversation, svcs.MessageEvents)
	svcs.Upload = services.NewUploadService(infra.Storage, cfg.Storage.MaxSize)
	svcs.Property = services.NewPropertyService(repos.Property, dashboardEvents)
	svcs.Deal = services.NewDealService(repos.Deal, dashboardEvents)
}
