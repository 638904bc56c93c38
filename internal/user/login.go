package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/novado-app/novado-server/internal/auth"
	"github.com/novado-app/novado-server/internal/config"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const sessionDuration = 24 * time.Hour

var ErrInvalidGoogleToken = errors.New("google id token is invalid")

type googleLoginDTO struct {
	IDToken string `json:"id_token"`
}

// GoogleLogin signs a user in with a Google ID token from the frontend's
// sign-in flow. Unknown accounts are created on first login.
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	var dto googleLoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil || dto.IDToken == "" {
		http.Error(w, "id_token required", http.StatusBadRequest)
		return
	}

	info, err := verifyGoogleIDToken(r.Context(), dto.IDToken)
	if err != nil {
		log.WithError(err).Warn("Google login rejected")
		http.Error(w, "invalid google token", http.StatusUnauthorized)
		return
	}

	u, err := h.repo.GetByEmail(info.Email)
	if err != nil {
		log.WithError(err).Error("Failed to look up user by email")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if u == nil {
		u = &User{
			ID:       uuid.New(),
			Username: usernameFromEmail(info.Email),
			Email:    info.Email,
		}
		if err := h.repo.Create(u); err != nil {
			log.WithError(err).Error("Failed to create user on first login")
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		log.Infof("Created account for %s", u.Email)
	}

	token, err := auth.GenerateJWT(u.ID.String(), "user", sessionDuration)
	if err != nil {
		log.WithError(err).Error("Failed to sign session token")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, token)
	config.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  u,
	})
}

// RefreshToken re-issues the session cookie for a still-valid session.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("jwt")
	if err != nil || cookie.Value == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateJWT(cookie.Value)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(claims.UserID, claims.Role, sessionDuration)
	if err != nil {
		config.WithContext(r.Context()).WithError(err).Error("Failed to sign session token")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, token)
	config.JSON(w, http.StatusOK, map[string]string{"token": token})
}

// verifyGoogleIDToken checks the token against Google's tokeninfo endpoint
// and that it was minted for this application.
func verifyGoogleIDToken(ctx context.Context, idToken string) (*goauth2.Tokeninfo, error) {
	svc, err := goauth2.NewService(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, err
	}

	info, err := svc.Tokeninfo().IdToken(idToken).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if info.Email == "" || !info.VerifiedEmail {
		return nil, ErrInvalidGoogleToken
	}
	if aud := os.Getenv("GOOGLE_CLIENT_ID"); aud != "" && info.Audience != aud {
		return nil, ErrInvalidGoogleToken
	}
	return info, nil
}

func usernameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionDuration / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
