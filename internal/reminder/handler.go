package reminder

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/novado-app/novado-server/internal/auth"
	"github.com/novado-app/novado-server/internal/config"
)

type Handler struct {
	subs SubscriptionRepository
}

func NewHandler(subs SubscriptionRepository) *Handler {
	return &Handler{subs: subs}
}

func currentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims, err := auth.GetUserClaimsFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

type subscribeDTO struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// Subscribe stores the browser's push subscription, replacing any previous
// one for the same user.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var dto subscribeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if dto.Endpoint == "" || dto.Keys.P256dh == "" || dto.Keys.Auth == "" {
		http.Error(w, "endpoint and keys required", http.StatusBadRequest)
		return
	}

	err := h.subs.Upsert(&PushSubscription{
		ID:       uuid.New(),
		UserID:   userID,
		Endpoint: dto.Endpoint,
		P256dh:   dto.Keys.P256dh,
		Auth:     dto.Keys.Auth,
	})
	if err != nil {
		log.WithError(err).Error("Failed to store push subscription")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusCreated, map[string]string{"message": "Subscription saved"})
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	if err := h.subs.DeleteByUser(userID); err != nil {
		log.WithError(err).Error("Failed to delete push subscription")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, map[string]string{"message": "Subscription removed"})
}
