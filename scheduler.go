// Package quartermaster maintenance scheduler.
// Generalizes the teacher's cron-driven Scheduler (scheduler.go) from
// "enqueue a recurring task onto a stream" to "run a maintenance
// operation (reclaim expired items, sweep failed items) on a cron
// schedule" — the sleep-until-next-due-task loop is kept verbatim; only
// what happens when a task fires changes.
package quartermaster

import (
	"context"
	"time"
)

// MaintenanceTask is one scheduled maintenance operation: a CronTask
// naming when it runs, plus the action to run when it's due.
type MaintenanceTask struct {
	*CronTask
	Run func(ctx context.Context) error
}

// MaintenanceScheduler runs a set of MaintenanceTasks on their cron
// schedules, sleeping between runs the way the teacher's Scheduler does —
// compute the next due time across all tasks, sleep until then, run
// whatever became due, repeat.
type MaintenanceScheduler struct {
	tasks   []*MaintenanceTask
	logger  *Logger
	running bool
}

// NewMaintenanceScheduler builds a scheduler over the given tasks.
func NewMaintenanceScheduler(logger *Logger, tasks ...*MaintenanceTask) *MaintenanceScheduler {
	if logger == nil {
		logger = NewLogger("quartermaster-scheduler")
	}
	return &MaintenanceScheduler{tasks: tasks, logger: logger}
}

// NewExpiryReclaimTask builds a MaintenanceTask that calls
// HandleExpiredItems on the given cron schedule.
func NewExpiryReclaimTask(schedule string, c *Client, timeout time.Duration, action ExpiryAction) (*MaintenanceTask, error) {
	ct, err := NewCronTask(schedule, "handle_expired_items", c.queue)
	if err != nil {
		return nil, err
	}
	return &MaintenanceTask{
		CronTask: ct,
		Run: func(ctx context.Context) error {
			_, err := c.HandleExpiredItems(ctx, timeout, action)
			return err
		},
	}, nil
}

// NewFailedRemovalTask builds a MaintenanceTask that calls
// RemoveFailedItems on the given cron schedule.
func NewFailedRemovalTask(schedule string, c *Client, opts RemoveFailedItemsOptions) (*MaintenanceTask, error) {
	ct, err := NewCronTask(schedule, "remove_failed_items", c.queue)
	if err != nil {
		return nil, err
	}
	return &MaintenanceTask{
		CronTask: ct,
		Run: func(ctx context.Context) error {
			_, _, err := c.RemoveFailedItems(ctx, opts)
			return err
		},
	}, nil
}

// Start runs the scheduler loop until ctx is canceled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	if len(s.tasks) == 0 {
		s.logger.Error("no maintenance tasks configured")
		return nil
	}

	s.logger.Info("starting maintenance scheduler", "tasks", len(s.tasks))
	s.running = true

	var upcoming []*MaintenanceTask

	for s.running {
		now := time.Now()

		for _, task := range upcoming {
			if err := task.Run(ctx); err != nil {
				s.logger.Error("maintenance task failed", "task", task.TaskName, "error", err)
			}
			task.MarkRun(now)
		}

		minDelay := 24 * time.Hour
		upcoming = nil

		for _, task := range s.tasks {
			next := task.NextRun(now)
			delay := next.Sub(now)

			if delay < minDelay {
				minDelay = delay
				upcoming = []*MaintenanceTask{task}
			} else if delay == minDelay {
				upcoming = append(upcoming, task)
			}
		}

		s.logger.Debug("sleeping until next maintenance task", "delay", minDelay)
		select {
		case <-time.After(minDelay):
		case <-ctx.Done():
			return nil
		}
	}

	s.logger.Info("maintenance scheduler stopped")
	return nil
}

// Stop ends the scheduler loop at its next wakeup.
func (s *MaintenanceScheduler) Stop() {
	s.running = false
}
