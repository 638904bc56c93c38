package googlecalendar

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/novado-app/novado-server/internal/user"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Listing is capped per calendar per cycle; the watermark window keeps the
// result set far below this in steady state.
const maxListResults = 100

// EventsAPI is the protocol-level surface the sync engine needs from the
// remote calendar service.
type EventsAPI interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*gcal.Event, error)
	InsertEvent(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListCalendars(ctx context.Context) ([]*gcal.CalendarListEntry, error)
}

// ClientFactory binds a user's credentials to an EventsAPI client.
type ClientFactory interface {
	For(ctx context.Context, u *user.User) (EventsAPI, error)
}

type googleClientFactory struct {
	creds CredentialProvider
}

func NewClientFactory(creds CredentialProvider) ClientFactory {
	return &googleClientFactory{creds: creds}
}

func (f *googleClientFactory) For(ctx context.Context, u *user.User) (EventsAPI, error) {
	ts, err := f.creds.TokenSource(ctx, u)
	if err != nil {
		return nil, err
	}

	srv, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, err
	}

	return &googleEventsAPI{srv: srv}, nil
}

type googleEventsAPI struct {
	srv *gcal.Service
}

func (c *googleEventsAPI) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*gcal.Event, error) {
	res, err := c.srv.Events.List(calendarID).
		TimeMin(timeMin.UTC().Format(time.RFC3339)).
		TimeMax(timeMax.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxListResults).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c *googleEventsAPI) InsertEvent(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error) {
	return c.srv.Events.Insert(calendarID, ev).Context(ctx).Do()
}

func (c *googleEventsAPI) UpdateEvent(ctx context.Context, calendarID, eventID string, ev *gcal.Event) (*gcal.Event, error) {
	return c.srv.Events.Update(calendarID, eventID, ev).Context(ctx).Do()
}

func (c *googleEventsAPI) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	err := c.srv.Events.Delete(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			// Already gone remotely, treat as deleted.
			return nil
		}
		return err
	}
	return nil
}

func (c *googleEventsAPI) ListCalendars(ctx context.Context) ([]*gcal.CalendarListEntry, error) {
	res, err := c.srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// IsAuthError reports whether an API or refresh failure means the stored
// token is expired, revoked or otherwise unusable, as opposed to a
// transient fault.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return true
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch retrieveErr.ErrorCode {
		case "invalid_grant", "invalid_client":
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "invalid_grant") ||
		strings.Contains(msg, "invalid_client") ||
		strings.Contains(msg, "Token has been expired or revoked")
}
