package container

import (
	"context"
	"log"
	"os"

	"github.com/novado-app/novado-server/internal/auth"
	calendarsync "github.com/novado-app/novado-server/internal/calendar_sync"
	"github.com/novado-app/novado-server/internal/config"
	googlecalendar "github.com/novado-app/novado-server/internal/google_calendar"
	"github.com/novado-app/novado-server/internal/list"
	"github.com/novado-app/novado-server/internal/reminder"
	"github.com/novado-app/novado-server/internal/scheduler"
	"github.com/novado-app/novado-server/internal/task"
	"github.com/novado-app/novado-server/internal/user"
)

type Container struct {
	UserContainer           *user.UserContainer
	TaskRepo                task.TaskRepository
	ListRepo                list.ListRepository
	GoogleCalendarContainer *googlecalendar.GoogleCalendarContainer
	ReminderContainer       *reminder.ReminderContainer
	SyncEngine              *calendarsync.Engine
	Scheduler               *scheduler.Scheduler
	CalendarHandler         *googlecalendar.Handler
}

func New() *Container {
	config.Init()
	auth.Init()
	config.InitCrypto()

	dsn := os.Getenv("DATABASE_DSN")
	if err := config.Connect(context.Background(), dsn); err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}

	userContainer := user.NewUserContainer(config.DB)
	taskRepo := task.NewRepository(config.DB)
	listRepo := list.NewRepository(config.DB)

	calendarContainer := googlecalendar.NewGoogleCalendarContainer(config.DB, userContainer.Repo, taskRepo)
	reminderContainer := reminder.NewReminderContainer(config.DB, taskRepo)

	engine := calendarsync.NewEngine(
		userContainer.Repo,
		taskRepo,
		listRepo,
		calendarContainer.ClientFactory,
	)
	sched := scheduler.NewScheduler(engine, reminderContainer.Dispatcher)

	calendarHandler := googlecalendar.NewHandler(
		calendarContainer.CalendarService,
		userContainer.Repo,
		sched,
	)

	return &Container{
		UserContainer:           userContainer,
		TaskRepo:                taskRepo,
		ListRepo:                listRepo,
		GoogleCalendarContainer: calendarContainer,
		ReminderContainer:       reminderContainer,
		SyncEngine:              engine,
		Scheduler:               sched,
		CalendarHandler:         calendarHandler,
	}
}
