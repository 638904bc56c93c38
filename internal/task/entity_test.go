package task

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestReminderDesktopDefaultsOn(t *testing.T) {
	// Rows written before the notify_desktop column existed must come back
	// with desktop notifications enabled, so the column default is true.
	field, ok := reflect.TypeOf(Reminder{}).FieldByName("NotifyDesktop")
	if !ok {
		t.Fatal("NotifyDesktop field missing")
	}
	if tag := field.Tag.Get("gorm"); !strings.Contains(tag, "default:true") {
		t.Errorf("NotifyDesktop gorm tag = %q, want a default:true column default", tag)
	}
}

func TestLinkage(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	tk := &Task{Title: "Plan sprint"}

	if tk.Linked() {
		t.Error("fresh task must not report as linked")
	}

	tk.MarkSynced("evt-1", "primary", now)
	if !tk.Linked() || !tk.SyncedWithGoogle {
		t.Error("MarkSynced should link the task")
	}
	if tk.LastSyncedAt == nil || !tk.LastSyncedAt.Equal(now) {
		t.Errorf("LastSyncedAt = %v, want %s", tk.LastSyncedAt, now)
	}

	tk.Unlink()
	if tk.Linked() || tk.SyncedWithGoogle || tk.LastSyncedAt != nil {
		t.Errorf("Unlink left linkage state behind: %+v", tk)
	}
}
