package reminder

import (
	"github.com/novado-app/novado-server/internal/task"
	"gorm.io/gorm"
)

type ReminderContainer struct {
	Subscriptions SubscriptionRepository
	Dispatcher    *Dispatcher
	Handler       *Handler
}

func NewReminderContainer(db *gorm.DB, taskRepo task.TaskRepository) *ReminderContainer {
	subs := NewSubscriptionRepository(db)
	dispatcher := NewDispatcher(taskRepo, subs, NewWebPushSender())
	handler := NewHandler(subs)

	return &ReminderContainer{
		Subscriptions: subs,
		Dispatcher:    dispatcher,
		Handler:       handler,
	}
}
