// Package jobs implements background job processing for the PlanTogether API.
//
// The jobs package contains scheduled tasks that run independently of
// HTTP request handling.
//
// # Job Types
//
// Available background jobs:
//
//   - DeadlineNotifier: warns hosts and attendees before voting closes
//   - TokenCleanup: expired and revoked refresh token removal
//
// # Scheduling
//
// Jobs are scheduled with cron expressions:
//
//	notifier := jobs.NewDeadlineNotifier(jobs.DeadlineNotifierConfig{
//	    Events:   eventRepo,
//	    Sink:     notificationService,
//	    Checker:  notificationRepo,
//	    CronSpec: cfg.Jobs.DeadlineCron,
//	    Window:   cfg.Jobs.DeadlineWindow,
//	})
//	if err := notifier.Start(); err != nil {
//	    ...
//	}
//	defer notifier.Stop()
//
// # Error Handling
//
// Jobs log errors but don't crash the application. A failed scan is
// simply retried on the next tick.
package jobs
