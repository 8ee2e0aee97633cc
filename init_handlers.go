package main

import (
	"github.com/akinalp/leasehub/config"
	"github.com/akinalp/leasehub/database"
	"github.com/akinalp/leasehub/handlers"
	"github.com/akinalp/leasehub/pkg/ratelimit"
)

// Handlers holds every HTTP handler.
type Handlers struct {
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Conversation *handlers.ConversationHandler
	Message      *handlers.MessageHandler
	Upload       *handlers.UploadHandler
	Property     *handlers.PropertyHandler
	Deal         *handlers.DealHandler
	Dashboard    *handlers.DashboardHandler
}

// Limiters are owned by main so shutdown can stop their sweep goroutines.
type Limiters struct {
	Login   *ratelimit.LoginRateLimiter
	Message *ratelimit.MessageRateLimiter
}

// Stop ends both sweep goroutines.
func (l *Limiters) Stop() {
	l.Login.Stop()
	l.Message.Stop()
}

func initHandlers(cfg *config.Config, db *database.DB, svcs *Services, sockets *Sockets, limiters *Limiters) *Handlers {
	return &Handlers{
		Health:       handlers.NewHealthHandler(db.Conn, sockets.Server),
		Auth:         handlers.NewAuthHandler(svcs.Auth, limiters.Login, cfg.JWT.CookieName),
		Conversation: handlers.NewConversationHandler(svcs.Conversation),
		Message:      handlers.NewMessageHandler(svcs.Message, limiters.Message),
		Upload:       handlers.NewUploadHandler(svcs.Upload, cfg.Storage.MaxSize),
		Property:     handlers.NewPropertyHandler(svcs.Property),
		Deal:         handlers.NewDealHandler(svcs.Deal),
		Dashboard:    handlers.NewDashboardHandler(svcs.KPI),
	}
}
