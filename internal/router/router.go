package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/novado-app/novado-server/internal/auth"
	"github.com/novado-app/novado-server/internal/config"
	googlecalendar "github.com/novado-app/novado-server/internal/google_calendar"
	"github.com/novado-app/novado-server/internal/middlewares"
	"github.com/novado-app/novado-server/internal/reminder"
	"github.com/novado-app/novado-server/internal/user"
)

type RouterConfig struct {
	UserHandler     *user.Handler
	CalendarHandler *googlecalendar.Handler
	ReminderHandler *reminder.Handler
}

func New(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CorsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		config.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Google redirects here without a session, and the config lookup is
	// needed before login.
	r.Get("/calendar/callback", cfg.CalendarHandler.Callback)
	r.Get("/calendar/config", cfg.CalendarHandler.Config)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", cfg.UserHandler.GoogleLogin)
		r.Post("/refresh", cfg.UserHandler.RefreshToken)
		r.Post("/logout", auth.NewHandler().Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)

		r.Mount("/users", user.Routes(cfg.UserHandler))
		r.Mount("/calendar", googlecalendar.Routes(cfg.CalendarHandler))
		r.Mount("/notifications", reminder.Routes(cfg.ReminderHandler))
	})

	return r
}
