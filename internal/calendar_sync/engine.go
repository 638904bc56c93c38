package calendarsync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/novado-app/novado-server/internal/config"
	googlecalendar "github.com/novado-app/novado-server/internal/google_calendar"
	"github.com/novado-app/novado-server/internal/list"
	"github.com/novado-app/novado-server/internal/task"
	"github.com/novado-app/novado-server/internal/user"
	"github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

var (
	ErrNotConnected   = errors.New("user has no google calendar connection")
	ErrSyncInProgress = errors.New("a sync cycle is already running for this user")
)

const (
	// Pull window bounds. The lower edge backs off one hour from the
	// watermark so events modified right at the boundary are not missed.
	watermarkBuffer   = time.Hour
	coldStartWindow   = 24 * time.Hour
	pullHorizon       = 90 * 24 * time.Hour
	calendarOriginTag = "google-calendar"
)

// Engine runs the bidirectional per-user sync cycle: pull remote changes in,
// then push local changes out. Errors are isolated per calendar and per
// task; one bad item never aborts the rest of the cycle.
type Engine struct {
	users   user.UserRepository
	tasks   task.TaskRepository
	lists   list.ListRepository
	clients googlecalendar.ClientFactory
	now     func() time.Time

	// Per-user in-flight set shared by the periodic loop and the
	// on-demand trigger; two cycles never run concurrently for one user.
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewEngine(
	users user.UserRepository,
	tasks task.TaskRepository,
	lists list.ListRepository,
	clients googlecalendar.ClientFactory,
) *Engine {
	return &Engine{
		users:    users,
		tasks:    tasks,
		lists:    lists,
		clients:  clients,
		now:      time.Now,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// SyncAllUsers runs the per-user cycle for every connected user
// sequentially. A single user's failure is counted, not propagated.
func (e *Engine) SyncAllUsers(ctx context.Context) (synced, failed int) {
	log := config.WithContext(ctx)

	users, err := e.users.ListGoogleConnected()
	if err != nil {
		log.WithError(err).Error("Failed to enumerate connected users")
		return 0, 0
	}
	if len(users) == 0 {
		log.Debug("No users with Google Calendar connected")
		return 0, 0
	}

	log.Infof("Starting bidirectional sync for %d users", len(users))

	for _, u := range users {
		if err := e.SyncUser(ctx, u); err != nil {
			if errors.Is(err, ErrSyncInProgress) {
				log.Infof("Skipping user %s, a sync is already running", u.Email)
				continue
			}
			failed++
			log.WithError(err).Warnf("Sync failed for user %s", u.Email)
			continue
		}
		synced++
	}

	log.Infof("Sync complete: %d users synced, %d errors", synced, failed)
	return synced, failed
}

// SyncUser performs one bidirectional cycle for a single user. A cycle
// already in flight for the same user, periodic or on-demand, makes the call
// return ErrSyncInProgress instead of racing it. Credential revocation is
// reconciled here: a refresh rejection clears every stored Google field so
// the account reads as "not connected" from then on.
func (e *Engine) SyncUser(ctx context.Context, u *user.User) error {
	if !e.acquire(u.ID) {
		return ErrSyncInProgress
	}
	defer e.release(u.ID)

	log := config.WithContext(ctx)

	api, err := e.clients.For(ctx, u)
	if err != nil {
		switch {
		case errors.Is(err, googlecalendar.ErrNotConnected):
			return ErrNotConnected
		case errors.Is(err, googlecalendar.ErrTokenRevoked),
			errors.Is(err, googlecalendar.ErrDecryptionFailed):
			log.Warnf("Clearing unusable Google credentials for user %s", u.Email)
			if clearErr := e.users.ClearGoogleCredentials(u.ID); clearErr != nil {
				log.WithError(clearErr).Error("Failed to clear Google credentials")
			}
			return ErrNotConnected
		default:
			return err
		}
	}

	if err := e.pull(ctx, api, u); err != nil {
		return err
	}
	e.push(ctx, api, u)
	return nil
}

func (e *Engine) acquire(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[id]; busy {
		return false
	}
	e.inFlight[id] = struct{}{}
	return true
}

func (e *Engine) release(id uuid.UUID) {
	e.mu.Lock()
	delete(e.inFlight, id)
	e.mu.Unlock()
}

// pull fetches the recent window from every selected calendar and reconciles
// each remote event against the local store. Per-calendar failures are
// logged and skipped; an auth failure mid-loop clears credentials and aborts
// the remaining calendars for this user only.
func (e *Engine) pull(ctx context.Context, api googlecalendar.EventsAPI, u *user.User) error {
	log := config.WithContext(ctx)
	now := e.now().UTC()

	timeMin := now.Add(-coldStartWindow)
	if u.LastCalendarSync != nil {
		timeMin = u.LastCalendarSync.Add(-watermarkBuffer)
	}
	timeMax := now.Add(pullHorizon)

	pulled := 0
	for _, calendarID := range u.SelectedCalendars() {
		events, err := api.ListEvents(ctx, calendarID, timeMin, timeMax)
		if err != nil {
			if googlecalendar.IsAuthError(err) {
				log.Warnf("Token revoked mid-sync for user %s, clearing credentials", u.Email)
				if clearErr := e.users.ClearGoogleCredentials(u.ID); clearErr != nil {
					log.WithError(clearErr).Error("Failed to clear Google credentials")
				}
				return ErrNotConnected
			}
			log.WithError(err).Warnf("Error pulling from calendar %s", calendarID)
			continue
		}

		for _, ev := range events {
			applied, err := e.reconcileRemote(ctx, u, calendarID, ev)
			if err != nil {
				log.WithError(err).WithFields(logrus.Fields{
					"event_id":    ev.Id,
					"calendar_id": calendarID,
				}).Warn("Failed to reconcile remote event")
				continue
			}
			if applied {
				pulled++
			}
		}
	}

	if pulled > 0 {
		log.Infof("Pulled %d events for user %s", pulled, u.Email)
	}

	// The watermark advances even when individual calendars errored, so a
	// persistently broken calendar does not force a full historical re-scan
	// of the healthy ones every cycle.
	syncedAt := e.now().UTC()
	if err := e.users.SetLastCalendarSync(u.ID, syncedAt); err != nil {
		log.WithError(err).Error("Failed to update lastCalendarSync watermark")
	} else {
		u.LastCalendarSync = &syncedAt
	}
	return nil
}

// reconcileRemote applies one remote event to the local store, returning
// whether anything was created or overwritten.
func (e *Engine) reconcileRemote(ctx context.Context, u *user.User, calendarID string, ev *gcal.Event) (bool, error) {
	if ev.Id == "" || ev.Start == nil {
		return false, nil
	}

	dueDate, dueTime, ok, err := eventDue(ctx, ev, u.TimezoneOrUTC())
	if err != nil || !ok {
		return false, err
	}

	existing, err := e.tasks.FindByUserAndEventID(u.ID, ev.Id)
	if err != nil {
		return false, err
	}

	if existing != nil {
		remoteUpdated := googlecalendar.ParseEventUpdated(ctx, ev.Updated)
		if !RemoteWins(remoteUpdated, existing.UpdatedAt) {
			return false, nil
		}
		err := e.tasks.ApplyRemoteUpdate(
			existing.ID,
			eventTitle(ev),
			ev.Description,
			dueDate,
			dueTime,
			e.now().UTC(),
		)
		return err == nil, err
	}

	return true, e.createFromRemote(ctx, u, calendarID, ev, dueDate, dueTime)
}

func (e *Engine) createFromRemote(ctx context.Context, u *user.User, calendarID string, ev *gcal.Event, dueDate time.Time, dueTime *string) error {
	log := config.WithContext(ctx)
	now := e.now().UTC()

	var listID *uuid.UUID
	inbox, err := e.lists.FindByUserAndName(u.ID, list.InboxName)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve Inbox list, creating task unassigned")
	} else if inbox != nil {
		listID = &inbox.ID
	}

	t := &task.Task{
		ID:             uuid.New(),
		Title:          eventTitle(ev),
		Description:    ev.Description,
		UserID:         u.ID,
		ListID:         listID,
		DueDate:        &dueDate,
		DueTime:        dueTime,
		Priority:       task.TaskPriorityNone,
		Status:         task.TaskStatusScheduled,
		Origin:         task.OriginGoogleCalendar,
		Tags:           []string{calendarOriginTag},
		SyncToCalendar: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if ev.ColorId != "" {
		color := ev.ColorId
		t.GoogleCalendarColor = &color
	}
	t.MarkSynced(ev.Id, calendarID, now)

	return e.tasks.Create(t)
}

// pushStats mirrors the cycle summary the sync log reports.
type pushStats struct {
	total         int
	noDueDate     int
	terminal      int
	syncDisabled  int
	alreadySynced int
	candidates    int
	pushed        int
}

// push writes every push-candidate task to the remote side. New events go to
// the first selected calendar; already-linked events are updated in place on
// whichever calendar they live in.
func (e *Engine) push(ctx context.Context, api googlecalendar.EventsAPI, u *user.User) pushStats {
	log := config.WithContext(ctx)

	target := u.SelectedCalendars()[0]

	all, err := e.tasks.ListByUser(u.ID)
	if err != nil {
		log.WithError(err).Error("Failed to list tasks for push phase")
		return pushStats{}
	}

	stats := pushStats{total: len(all)}
	var candidates []*task.Task
	for _, t := range all {
		switch ClassifyPush(t) {
		case SkipNoDueDate:
			stats.noDueDate++
		case SkipTerminalStatus:
			stats.terminal++
		case SkipSyncDisabled:
			stats.syncDisabled++
		case SkipAlreadySynced:
			stats.alreadySynced++
		case PushEligible:
			stats.candidates++
			candidates = append(candidates, t)
		}
	}

	log.Infof("Push stats for %s: %d total tasks, %d to push, %d sync disabled, %d missing due date, %d completed/deleted, %d already synced",
		u.Email, stats.total, stats.candidates, stats.syncDisabled, stats.noDueDate, stats.terminal, stats.alreadySynced)

	for _, t := range candidates {
		if err := e.pushOne(ctx, api, u, t, target); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"task_id": t.ID,
				"title":   t.Title,
			}).Error("Error pushing task to calendar")
			continue
		}
		stats.pushed++
	}

	if stats.pushed > 0 {
		log.Infof("Pushed %d tasks for user %s", stats.pushed, u.Email)
	}
	return stats
}

func (e *Engine) pushOne(ctx context.Context, api googlecalendar.EventsAPI, u *user.User, t *task.Task, target string) error {
	body, err := googlecalendar.BuildEvent(ctx, t, u.TimezoneOrUTC())
	if err != nil {
		return err
	}

	var remote *gcal.Event
	calendarID := target
	if t.Linked() {
		// An event linked elsewhere is updated in place, not duplicated
		// onto the push target.
		if t.GoogleCalendarID != nil && *t.GoogleCalendarID != "" {
			calendarID = *t.GoogleCalendarID
		}
		remote, err = api.UpdateEvent(ctx, calendarID, *t.GoogleEventID, body)
	} else {
		remote, err = api.InsertEvent(ctx, calendarID, body)
	}
	if err != nil {
		return err
	}

	return e.tasks.MarkSynced(t.ID, remote.Id, calendarID, e.now().UTC())
}

func eventTitle(ev *gcal.Event) string {
	if ev.Summary == "" {
		return "Untitled"
	}
	return ev.Summary
}

// eventDue extracts the local due date and optional due time from a remote
// event. ok is false when the event carries no usable start.
func eventDue(ctx context.Context, ev *gcal.Event, timezone string) (time.Time, *string, bool, error) {
	switch {
	case ev.Start.DateTime != "":
		dueDate, clock, err := googlecalendar.EventTimeToLocal(ctx, ev.Start.DateTime, timezone)
		if err != nil {
			return time.Time{}, nil, false, err
		}
		return dueDate, &clock, true, nil
	case ev.Start.Date != "":
		dueDate, err := googlecalendar.ParseAllDayDate(ev.Start.Date)
		if err != nil {
			return time.Time{}, nil, false, err
		}
		return dueDate, nil, true, nil
	default:
		return time.Time{}, nil, false, nil
	}
}
