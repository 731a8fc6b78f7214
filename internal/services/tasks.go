package services

import (
	"context"
	"time"

	"podly/internal/scheduler"
)

// RegisterTasks binds the status and reminder sweeps to the scheduler's
// cadences. The composition is fixed: the frequent loop handles the
// one-hour-horizon work, the hourly loop repeats the day-horizon reminders,
// and the daily tick (10:00 UTC by default) carries everything date-keyed.
// LOW_ATTENDANCE and SAVED_DEADLINE appear on two cadences on purpose; the
// ledger dedup makes the extra firings no-ops.
func RegisterTasks(s *scheduler.Scheduler, status *StatusService, reminders *ReminderService) {
	utcNow := func() time.Time { return time.Now().UTC() }

	s.Register(scheduler.Frequent, "cancel_unconfirmed_pods", func(ctx context.Context) error {
		return status.CancelUnconfirmedPods(ctx, utcNow())
	})
	s.Register(scheduler.Frequent, "remind_start_soon", func(ctx context.Context) error {
		return reminders.RemindStartingSoon(ctx, utcNow())
	})
	s.Register(scheduler.Frequent, "remind_cancel_soon", func(ctx context.Context) error {
		return reminders.RemindCancelSoon(ctx, utcNow())
	})

	s.Register(scheduler.Hourly, "remind_low_attendance", func(ctx context.Context) error {
		return reminders.RemindLowAttendance(ctx, utcNow())
	})
	s.Register(scheduler.Hourly, "remind_saved_deadline", func(ctx context.Context) error {
		return reminders.RemindSavedDeadline(ctx, utcNow())
	})

	s.Register(scheduler.Daily, "close_completed_pods", func(ctx context.Context) error {
		return status.CloseCompletedPods(ctx, utcNow())
	})
	s.Register(scheduler.Daily, "remind_low_attendance", func(ctx context.Context) error {
		return reminders.RemindLowAttendance(ctx, utcNow())
	})
	s.Register(scheduler.Daily, "remind_saved_deadline", func(ctx context.Context) error {
		return reminders.RemindSavedDeadline(ctx, utcNow())
	})
	s.Register(scheduler.Daily, "remind_review_day", func(ctx context.Context) error {
		return reminders.RemindReviewDay(ctx, utcNow())
	})
	s.Register(scheduler.Daily, "remind_review_week", func(ctx context.Context) error {
		return reminders.RemindReviewWeek(ctx, utcNow())
	})
}
