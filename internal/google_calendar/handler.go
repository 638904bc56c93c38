package googlecalendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/novado-app/novado-server/internal/auth"
	"github.com/novado-app/novado-server/internal/config"
	"github.com/novado-app/novado-server/internal/user"
)

// SyncTrigger is the scheduler's on-demand entry point; the handler only
// needs the boolean outcome.
type SyncTrigger interface {
	SyncNow(ctx context.Context, u *user.User) bool
}

type Handler struct {
	service  CalendarService
	userRepo user.UserRepository
	trigger  SyncTrigger
}

func NewHandler(service CalendarService, userRepo user.UserRepository, trigger SyncTrigger) *Handler {
	return &Handler{
		service:  service,
		userRepo: userRepo,
		trigger:  trigger,
	}
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) *user.User {
	log := config.WithContext(r.Context())

	claims, err := auth.GetUserClaimsFromContext(r.Context())
	if err != nil {
		log.Warn("User not authenticated")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil
	}

	u, err := h.userRepo.GetByID(claims.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to load user")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil
	}
	if u == nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return nil
	}
	return u
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	config.JSON(w, http.StatusOK, h.service.Status(r.Context(), u))
}

func (h *Handler) Auth(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	u := h.currentUser(w, r)
	if u == nil {
		return
	}

	authURL, state, err := h.service.AuthURL(r.Context(), u)
	if err != nil {
		log.WithError(err).Error("Failed to start Google OAuth flow")
		http.Error(w, "google calendar is not configured", http.StatusBadRequest)
		return
	}

	config.JSON(w, http.StatusOK, map[string]string{
		"authorization_url": authURL,
		"state":             state,
	})
}

// Callback handles the unauthenticated OAuth redirect from Google and sends
// the browser back to the app shell with the outcome in the query string.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	q := r.URL.Query()
	if errMsg := q.Get("error"); errMsg != "" {
		redirectWithResult(w, r, "error", errMsg)
		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		redirectWithResult(w, r, "error", "Missing authorization code")
		return
	}

	if err := h.service.HandleCallback(r.Context(), code, state); err != nil {
		log.WithError(err).Error("Google auth callback failed")
		if errors.Is(err, ErrInvalidState) {
			redirectWithResult(w, r, "error", "Invalid state parameter")
			return
		}
		redirectWithResult(w, r, "error", "Authentication failed")
		return
	}

	redirectWithResult(w, r, "success", "")
}

func redirectWithResult(w http.ResponseWriter, r *http.Request, result, message string) {
	target := "/?google_auth=" + result
	if message != "" {
		target += "&message=" + url.QueryEscape(message)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	u := h.currentUser(w, r)
	if u == nil {
		return
	}

	deleted, err := h.service.Disconnect(r.Context(), u)
	if err != nil {
		log.WithError(err).Error("Failed to disconnect Google Calendar")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, map[string]any{
		"message":       "Google Calendar disconnected",
		"eventsDeleted": deleted,
	})
}

func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	u := h.currentUser(w, r)
	if u == nil {
		return
	}

	calendars, err := h.service.ListCalendars(r.Context(), u)
	if err != nil {
		if errors.Is(err, ErrNotConnected) || errors.Is(err, ErrTokenRevoked) {
			http.Error(w, "google calendar not connected", http.StatusBadRequest)
			return
		}
		log.WithError(err).Error("Failed to list Google calendars")
		http.Error(w, "failed to list calendars", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, map[string]any{"calendars": calendars})
}

type selectCalendarsDTO struct {
	CalendarIDs []string `json:"calendar_ids"`
}

func (h *Handler) SelectCalendars(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	u := h.currentUser(w, r)
	if u == nil {
		return
	}

	var dto selectCalendarsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(dto.CalendarIDs) == 0 {
		http.Error(w, "calendar_ids required", http.StatusBadRequest)
		return
	}

	deleted, err := h.service.SelectCalendars(r.Context(), u, dto.CalendarIDs)
	if err != nil {
		log.WithError(err).Error("Failed to update calendar selection")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, map[string]any{
		"message":       "Calendar selection updated",
		"selected":      dto.CalendarIDs,
		"eventsDeleted": deleted,
	})
}

// SyncNow triggers an immediate bidirectional sync for the caller.
func (h *Handler) SyncNow(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	u := h.currentUser(w, r)
	if u == nil {
		return
	}

	if !u.HasGoogleCalendar() {
		http.Error(w, "Google Calendar not connected. Please connect in Settings first.", http.StatusBadRequest)
		return
	}

	if h.trigger.SyncNow(r.Context(), u) {
		config.JSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Calendar sync completed",
		})
		return
	}

	log.Warnf("On-demand sync failed for user %s", u.ID)
	config.JSON(w, http.StatusBadGateway, map[string]any{
		"success": false,
		"message": "Sync failed. Please check your Google Calendar connection.",
	})
}

// Config reports whether OAuth client credentials are present, without
// requiring authentication.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	configured := h.service.Status(r.Context(), &user.User{}).Configured
	message := "Google Calendar is configured"
	if !configured {
		message = fmt.Sprintf("Google Calendar credentials not set. Add %s and %s to the environment.",
			"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET")
	}
	config.JSON(w, http.StatusOK, map[string]any{
		"configured": configured,
		"message":    message,
	})
}
