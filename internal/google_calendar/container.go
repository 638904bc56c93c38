package googlecalendar

import (
	"os"

	"github.com/novado-app/novado-server/internal/task"
	"github.com/novado-app/novado-server/internal/user"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	goauth2 "google.golang.org/api/oauth2/v2"
	"gorm.io/gorm"
)

type GoogleCalendarContainer struct {
	CredentialProvider CredentialProvider
	ClientFactory      ClientFactory
	CalendarService    CalendarService
}

func NewGoogleCalendarContainer(
	db *gorm.DB,
	userRepo user.UserRepository,
	taskRepo task.TaskRepository,
) *GoogleCalendarContainer {
	oauthConfig := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes: []string{
			gcal.CalendarReadonlyScope,
			gcal.CalendarEventsScope,
			goauth2.UserinfoEmailScope,
			goauth2.UserinfoProfileScope,
			"openid",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}

	creds := NewCredentialProvider(userRepo, oauthConfig)
	clients := NewClientFactory(creds)
	stateRepo := NewStateRepository(db)
	service := NewCalendarService(userRepo, taskRepo, stateRepo, creds, clients, oauthConfig)

	return &GoogleCalendarContainer{
		CredentialProvider: creds,
		ClientFactory:      clients,
		CalendarService:    service,
	}
}
