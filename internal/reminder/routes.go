package reminder

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/subscribe", h.Subscribe)
	r.Delete("/subscribe", h.Unsubscribe)

	return r
}
