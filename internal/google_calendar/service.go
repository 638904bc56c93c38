package googlecalendar

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/novado-app/novado-server/internal/config"
	"github.com/novado-app/novado-server/internal/task"
	"github.com/novado-app/novado-server/internal/user"
	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var ErrInvalidState = errors.New("invalid or expired oauth state")

// CalendarService owns the account-link lifecycle: connect, status, calendar
// selection and disconnect, including the local cleanup those imply.
type CalendarService interface {
	Status(ctx context.Context, u *user.User) *StatusResponse
	AuthURL(ctx context.Context, u *user.User) (string, string, error)
	HandleCallback(ctx context.Context, code, state string) error
	ListCalendars(ctx context.Context, u *user.User) ([]CalendarInfo, error)
	SelectCalendars(ctx context.Context, u *user.User, calendarIDs []string) (int, error)
	Disconnect(ctx context.Context, u *user.User) (int, error)
}

type calendarService struct {
	userRepo    user.UserRepository
	taskRepo    task.TaskRepository
	stateRepo   StateRepository
	creds       CredentialProvider
	clients     ClientFactory
	oauthConfig *oauth2.Config
}

func NewCalendarService(
	userRepo user.UserRepository,
	taskRepo task.TaskRepository,
	stateRepo StateRepository,
	creds CredentialProvider,
	clients ClientFactory,
	oauthConfig *oauth2.Config,
) CalendarService {
	return &calendarService{
		userRepo:    userRepo,
		taskRepo:    taskRepo,
		stateRepo:   stateRepo,
		creds:       creds,
		clients:     clients,
		oauthConfig: oauthConfig,
	}
}

func (s *calendarService) configured() bool {
	return s.oauthConfig.ClientID != "" && s.oauthConfig.ClientSecret != ""
}

func (s *calendarService) Status(ctx context.Context, u *user.User) *StatusResponse {
	res := &StatusResponse{
		Configured: s.configured(),
		Connected:  u.HasGoogleCalendar(),
	}

	if res.Connected {
		if _, err := s.creds.TokenSource(ctx, u); errors.Is(err, ErrTokenRevoked) {
			res.Connected = false
			res.TokenExpired = true
		} else if u.GoogleRefreshToken == nil || *u.GoogleRefreshToken == "" {
			res.Warning = "Refresh token missing - connection will expire"
		}
	}
	if res.Connected {
		res.Email = u.GoogleEmail
	}
	return res
}

func (s *calendarService) AuthURL(ctx context.Context, u *user.User) (string, string, error) {
	if !s.configured() {
		return "", "", errors.New("google calendar is not configured")
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	if err := s.stateRepo.Create(&OAuthState{State: state, UserID: u.ID}); err != nil {
		return "", "", err
	}

	url := s.oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
	return url, state, nil
}

func (s *calendarService) HandleCallback(ctx context.Context, code, state string) error {
	log := config.WithContext(ctx)

	stateRec, err := s.stateRepo.Consume(state)
	if err != nil {
		return err
	}
	if stateRec == nil {
		return ErrInvalidState
	}

	tok, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	u, err := s.userRepo.GetByID(stateRec.UserID.String())
	if err != nil {
		return err
	}
	if u == nil {
		return user.ErrUserNotFound
	}

	now := time.Now().UTC()
	u.GoogleConnectedAt = &now
	if len(u.GoogleSelectedCalendars) == 0 {
		u.GoogleSelectedCalendars = []string{"primary"}
	}

	// Best effort: record which Google account was linked.
	if email := s.fetchGoogleEmail(ctx, tok); email != "" {
		u.GoogleEmail = &email
	} else {
		log.Warnf("Could not resolve Google account email for user %s", u.ID)
	}

	// Profile fields first, token columns second: PersistTokens writes the
	// encrypted token columns directly and must not be clobbered by Save.
	if err := s.userRepo.Update(u); err != nil {
		return err
	}
	if err := s.creds.PersistTokens(ctx, u.ID, tok); err != nil {
		return fmt.Errorf("persist google tokens: %w", err)
	}

	log.Infof("Google Calendar connected for user %s", u.ID)
	return nil
}

func (s *calendarService) fetchGoogleEmail(ctx context.Context, tok *oauth2.Token) string {
	svc, err := goauth2.NewService(ctx, option.WithTokenSource(s.oauthConfig.TokenSource(ctx, tok)))
	if err != nil {
		return ""
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return ""
	}
	return info.Email
}

func (s *calendarService) ListCalendars(ctx context.Context, u *user.User) ([]CalendarInfo, error) {
	api, err := s.clients.For(ctx, u)
	if err != nil {
		return nil, err
	}

	entries, err := api.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}

	selected := make(map[string]bool, len(u.SelectedCalendars()))
	for _, id := range u.SelectedCalendars() {
		selected[id] = true
	}

	calendars := make([]CalendarInfo, 0, len(entries))
	for _, entry := range entries {
		color := entry.BackgroundColor
		if color == "" {
			color = defaultCalendarColor
		}
		calendars = append(calendars, CalendarInfo{
			ID:       entry.Id,
			Name:     entry.Summary,
			Primary:  entry.Primary,
			Color:    color,
			Selected: selected[entry.Id],
		})
	}
	return calendars, nil
}

// SelectCalendars updates the selection and cleans up tasks linked to the
// calendars that fell out of it. Returns how many tasks were deleted.
func (s *calendarService) SelectCalendars(ctx context.Context, u *user.User, calendarIDs []string) (int, error) {
	deleted, err := s.cleanupExcluded(ctx, u, calendarIDs)
	if err != nil {
		return 0, err
	}

	if err := s.userRepo.SetSelectedCalendars(u.ID, calendarIDs); err != nil {
		return deleted, err
	}
	u.GoogleSelectedCalendars = calendarIDs
	return deleted, nil
}

// Disconnect severs the account link: all calendar-origin tasks go away,
// locally-authored tasks keep their data but lose the linkage, and every
// stored Google field on the user is cleared.
func (s *calendarService) Disconnect(ctx context.Context, u *user.User) (int, error) {
	deleted, err := s.cleanupExcluded(ctx, u, nil)
	if err != nil {
		return 0, err
	}

	if err := s.userRepo.ClearGoogleCredentials(u.ID); err != nil {
		return deleted, err
	}

	config.WithContext(ctx).Infof("Google Calendar disconnected for user %s (%d mirrored tasks removed)", u.ID, deleted)
	return deleted, nil
}

// cleanupExcluded removes the local footprint of calendars not in keep.
// Calendar-origin tasks are mirrors with no independent meaning and are
// deleted; locally-authored tasks that were pushed are only unlinked.
func (s *calendarService) cleanupExcluded(ctx context.Context, u *user.User, keep []string) (int, error) {
	log := config.WithContext(ctx)

	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}

	tasks, err := s.taskRepo.ListByUser(u.ID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, t := range tasks {
		if t.GoogleCalendarID == nil || *t.GoogleCalendarID == "" || kept[*t.GoogleCalendarID] {
			continue
		}

		if t.Origin == task.OriginGoogleCalendar {
			if err := s.taskRepo.Delete(t.ID, u.ID); err != nil {
				log.WithError(err).Warnf("Failed to delete mirrored task %s", t.ID)
				continue
			}
			deleted++
		} else {
			t.Unlink()
			if err := s.taskRepo.Update(t); err != nil {
				log.WithError(err).Warnf("Failed to unlink task %s", t.ID)
			}
		}
	}

	if deleted > 0 {
		log.Infof("Deleted %d mirrored tasks from excluded calendars for user %s", deleted, u.ID)
	}
	return deleted, nil
}
