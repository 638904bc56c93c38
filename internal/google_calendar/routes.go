package googlecalendar

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes covers the authenticated calendar surface. The OAuth callback is
// exposed separately because Google redirects to it without a session.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/status", h.Status)
	r.Get("/auth", h.Auth)
	r.Post("/disconnect", h.Disconnect)
	r.Get("/calendars", h.ListCalendars)
	r.Post("/calendars/select", h.SelectCalendars)
	r.Post("/sync", h.SyncNow)

	return r
}
