package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/noahxzhu/interval-alert/internal/clock"
	"github.com/noahxzhu/interval-alert/internal/model"
	"github.com/noahxzhu/interval-alert/internal/notify"
	"github.com/noahxzhu/interval-alert/internal/storage"
)

const DefaultNotifyTimeout = 10 * time.Second

// Worker owns the single alert registration and fires it. It is the timer
// service behind alert.Scheduler: registration calls return immediately and
// firings happen on the worker goroutine.
type Worker struct {
	store         *storage.Store
	handler       notify.Handler
	clock         clock.Clock
	notifyTimeout time.Duration
	updateChan    chan struct{}
}

type Option func(*Worker)

func WithClock(c clock.Clock) Option {
	return func(w *Worker) { w.clock = c }
}

func WithNotifyTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.notifyTimeout = d
		}
	}
}

func NewWorker(store *storage.Store, handler notify.Handler, opts ...Option) *Worker {
	w := &Worker{
		store:         store,
		handler:       handler,
		clock:         clock.Real(),
		notifyTimeout: DefaultNotifyTimeout,
		updateChan:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Refresh signals the worker to re-evaluate the schedule immediately
func (w *Worker) Refresh() {
	select {
	case w.updateChan <- struct{}{}:
	default:
		// Channel already has a pending signal, no need to block
	}
}

// ScheduleRepeating stores a new registration, replacing whatever was there.
// The first trigger is one full interval from now.
func (w *Worker) ScheduleRepeating(_ context.Context, interval time.Duration, payload string) (model.Registration, error) {
	if interval <= 0 {
		return model.Registration{}, errors.New("interval must be positive")
	}

	now := w.clock.Now()
	first := now.Add(interval)
	reg := model.Registration{
		ID:             uuid.New().String(),
		Message:        payload,
		IntervalMillis: interval.Milliseconds(),
		FirstTrigger:   first,
		NextTrigger:    first,
		CreatedAt:      now,
		Status:         model.StatusScheduled,
	}

	if err := w.store.PutRegistration(reg); err != nil {
		return model.Registration{}, fmt.Errorf("persist registration: %w", err)
	}

	w.Refresh()
	return reg, nil
}

// Cancel stops the active registration. Cancelling when nothing is scheduled
// is not an error.
func (w *Worker) Cancel(_ context.Context) error {
	cancelled := false
	_, err := w.store.UpdateRegistration(func(r *model.Registration) {
		if r.Active() {
			r.Status = model.StatusCancelled
			cancelled = true
		}
	})
	if err != nil {
		return fmt.Errorf("persist cancellation: %w", err)
	}
	if cancelled {
		w.Refresh()
	}
	return nil
}

func (w *Worker) Active() (model.Registration, bool) {
	reg, ok := w.store.GetRegistration()
	if !ok || !reg.Active() {
		return model.Registration{}, false
	}
	return reg, true
}

func (w *Worker) Start(ctx context.Context) {
	slog.Info("Worker started (Event-Driven)")

	timer := w.clock.NewTimer(time.Hour)
	timer.Stop()

	for {
		// 1. Fire if due and find the next trigger
		nextRun := w.checkAndProcess(ctx)

		// 2. Set timer
		if !timer.Stop() {
			select {
			case <-timer.C():
			default:
			}
		}

		if nextRun.IsZero() {
			slog.Info("No active alert. Worker idle.")
		} else {
			duration := nextRun.Sub(w.clock.Now())
			if duration < 0 {
				duration = 0 // Run immediately
			}
			timer.Reset(duration)
			slog.Info("Next alert scheduled", "in", duration, "at", nextRun.Format(time.TimeOnly))
		}

		// 3. Wait for event
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("Worker stopped")
			return
		case <-w.updateChan:
			slog.Debug("Worker received update signal. Refreshing...")
		case <-timer.C():
		}
	}
}

// checkAndProcess fires the alert if it is due and returns the time of the
// next trigger, or zero when nothing is scheduled.
func (w *Worker) checkAndProcess(ctx context.Context) time.Time {
	reg, ok := w.Active()
	if !ok {
		return time.Time{}
	}

	now := w.clock.Now()
	if now.Before(reg.NextTrigger) {
		return reg.NextTrigger
	}

	slog.Info("Firing alert", "id", reg.ID, "fire", reg.FireCount+1, "scheduled", reg.NextTrigger.Format(time.TimeOnly), "delay", now.Sub(reg.NextTrigger))

	nctx, cancel := context.WithTimeout(ctx, w.notifyTimeout)
	err := w.handler.Notify(nctx, reg.Message)
	cancel()

	lastError := ""
	if err != nil {
		slog.Error("Failed to deliver alert", "id", reg.ID, "error", err)
		lastError = err.Error()
	}

	next := nextTrigger(reg.NextTrigger, reg.Interval(), now)

	_, saveErr := w.store.UpdateRegistration(func(r *model.Registration) {
		// Replaced or cancelled while the handler ran.
		if r.ID != reg.ID || !r.Active() {
			return
		}
		r.FireCount++
		r.LastFired = now
		r.NextTrigger = next
		r.LastError = lastError
	})
	if saveErr != nil {
		slog.Error("Failed to save store", "error", saveErr)
	}

	return next
}

// nextTrigger returns the first trigger after now on the grid anchored at
// last, stepping by exactly interval. Triggers missed while the process was
// asleep or stopped collapse into the one that just fired.
func nextTrigger(last time.Time, interval time.Duration, now time.Time) time.Time {
	next := last.Add(interval)
	if next.After(now) {
		return next
	}
	missed := now.Sub(last) / interval
	return last.Add((missed + 1) * interval)
}
