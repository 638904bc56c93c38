package googlecalendar

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/novado-app/novado-server/internal/config"
	"github.com/novado-app/novado-server/internal/user"
	"golang.org/x/oauth2"
)

var (
	ErrNotConnected     = errors.New("google calendar is not connected")
	ErrTokenRevoked     = errors.New("google token is expired or revoked")
	ErrDecryptionFailed = errors.New("failed to decrypt user's google token")
)

// CredentialProvider resolves an OAuth token source for a user's Google
// account and persists refreshed tokens. PersistTokens blocks until the
// write lands; PersistTokensAsync is fire-and-forget for callers that must
// not stall on persistence (a failed async write is only logged, the next
// cycle simply refreshes again).
type CredentialProvider interface {
	TokenSource(ctx context.Context, u *user.User) (oauth2.TokenSource, error)
	PersistTokens(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) error
	PersistTokensAsync(ctx context.Context, userID uuid.UUID, tok *oauth2.Token)
}

type googleCredentialProvider struct {
	userRepo    user.UserRepository
	oauthConfig *oauth2.Config
}

func NewCredentialProvider(userRepo user.UserRepository, oauthConfig *oauth2.Config) CredentialProvider {
	return &googleCredentialProvider{
		userRepo:    userRepo,
		oauthConfig: oauthConfig,
	}
}

func (p *googleCredentialProvider) TokenSource(ctx context.Context, u *user.User) (oauth2.TokenSource, error) {
	log := config.WithContext(ctx)

	if !u.HasGoogleCalendar() {
		return nil, ErrNotConnected
	}

	accessToken, err := config.Decrypt(*u.GoogleAccessToken)
	if err != nil {
		log.WithError(err).Error("Failed to decrypt Google access token")
		return nil, ErrDecryptionFailed
	}

	refreshToken := ""
	if u.GoogleRefreshToken != nil && *u.GoogleRefreshToken != "" {
		refreshToken, err = config.Decrypt(*u.GoogleRefreshToken)
		if err != nil {
			log.WithError(err).Error("Failed to decrypt Google refresh token")
			return nil, ErrDecryptionFailed
		}
	}

	expiry := time.Now().Add(-time.Hour)
	if u.GoogleTokenExpiry != nil {
		expiry = *u.GoogleTokenExpiry
	}

	tok := &oauth2.Token{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
		Expiry:       expiry,
	}

	ts := p.oauthConfig.TokenSource(ctx, tok)
	current, err := ts.Token()
	if err != nil {
		if IsAuthError(err) {
			log.WithError(err).Warnf("Google token refresh rejected for user %s", u.ID)
			return nil, ErrTokenRevoked
		}
		return nil, err
	}

	if current.AccessToken != accessToken {
		log.Infof("Google token refreshed for user %s", u.ID)
		p.PersistTokensAsync(ctx, u.ID, current)
	}

	return oauth2.ReuseTokenSource(current, ts), nil
}

func (p *googleCredentialProvider) PersistTokens(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) error {
	encryptedAccess, err := config.Encrypt(tok.AccessToken)
	if err != nil {
		return err
	}

	var refresh *string
	if tok.RefreshToken != "" {
		encryptedRefresh, err := config.Encrypt(tok.RefreshToken)
		if err != nil {
			return err
		}
		refresh = &encryptedRefresh
	}

	var expiry *time.Time
	if !tok.Expiry.IsZero() {
		e := tok.Expiry
		expiry = &e
	}

	return p.userRepo.UpdateGoogleTokens(userID, encryptedAccess, refresh, expiry)
}

func (p *googleCredentialProvider) PersistTokensAsync(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) {
	go func() {
		if err := p.PersistTokens(context.WithoutCancel(ctx), userID, tok); err != nil {
			config.WithContext(ctx).WithError(err).
				Warnf("Failed to persist refreshed Google token for user %s", userID)
		}
	}()
}
