// Package alert turns Set Alert input into a single repeating timer
// registration.
//
// Timing is best-effort: the timer service may deliver a firing late, and
// late firings are coalesced rather than replayed. Callers must not rely on
// exact intervals.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/noahxzhu/interval-alert/internal/model"
)

// TimerService registers repeating triggers. The worker package provides the
// production implementation.
type TimerService interface {
	ScheduleRepeating(ctx context.Context, interval time.Duration, payload string) (model.Registration, error)
	Cancel(ctx context.Context) error
	Active() (model.Registration, bool)
}

type Scheduler struct {
	timers TimerService
}

func NewScheduler(timers TimerService) *Scheduler {
	return &Scheduler{timers: timers}
}

// ScheduleRepeatingAlert replaces any active registration with one that
// fires message every intervalMillis, first after one full interval.
func (s *Scheduler) ScheduleRepeatingAlert(ctx context.Context, intervalMillis int64, message string) error {
	if intervalMillis <= 0 {
		return &ValidationError{Field: "interval", Input: fmt.Sprint(intervalMillis), Err: ErrNonPositiveInterval}
	}
	if intervalMillis > MaxIntervalSeconds*1000 {
		return &ValidationError{Field: "interval", Input: fmt.Sprint(intervalMillis), Err: ErrIntervalTooLarge}
	}

	if err := s.timers.Cancel(ctx); err != nil {
		return fmt.Errorf("%w: cancel existing: %w", ErrRegistration, err)
	}

	reg, err := s.timers.ScheduleRepeating(ctx, time.Duration(intervalMillis)*time.Millisecond, message)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegistration, err)
	}

	slog.Info("Alert scheduled", "id", reg.ID, "interval_ms", intervalMillis, "first_trigger", reg.FirstTrigger)
	return nil
}

// Submit handles the raw Set Alert form. It returns the confirmation text
// only when the alert was registered.
func (s *Scheduler) Submit(ctx context.Context, intervalInput, messageInput string) (string, error) {
	req, err := ParseRequest(intervalInput, messageInput)
	if err != nil {
		slog.Info("Alert input rejected", "error", err)
		return "", err
	}

	if err := s.ScheduleRepeatingAlert(ctx, req.IntervalMillis(), req.Message); err != nil {
		slog.Error("Failed to schedule alert", "error", err)
		return "", err
	}

	return Confirmation(req.IntervalSeconds, req.Message), nil
}

func (s *Scheduler) Cancel(ctx context.Context) error {
	if err := s.timers.Cancel(ctx); err != nil {
		return fmt.Errorf("cancel alert: %w", err)
	}
	slog.Info("Alert cancelled")
	return nil
}

// Status returns the active registration, if any.
func (s *Scheduler) Status() (model.Registration, bool) {
	return s.timers.Active()
}
