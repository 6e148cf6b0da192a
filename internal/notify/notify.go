// Package notify delivers a fired alert to the user.
//
// Handlers run on the worker goroutine, never on a request goroutine. They
// must return promptly; the worker bounds each call with a timeout context.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"
)

// DefaultMessage is shown when a registration carries no message.
const DefaultMessage = "Time to check the app!"

type Handler interface {
	Notify(ctx context.Context, message string) error
}

type HandlerFunc func(ctx context.Context, message string) error

func (f HandlerFunc) Notify(ctx context.Context, message string) error {
	return f(ctx, message)
}

// Multi delivers to every handler and joins their errors.
type Multi []Handler

func (m Multi) Notify(ctx context.Context, message string) error {
	if message == "" {
		message = DefaultMessage
	}
	var errs []error
	for _, h := range m {
		if err := h.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Desktop posts a system notification that stays in the notification center
// after it is shown.
type Desktop struct {
	Title string
	Icon  string

	send func(title, message string, icon any) error
}

func NewDesktop(title string) *Desktop {
	return &Desktop{Title: title, send: beeep.Notify}
}

func (d *Desktop) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if message == "" {
		message = DefaultMessage
	}
	send := d.send
	if send == nil {
		send = beeep.Notify
	}
	if err := send(d.Title, message, d.Icon); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

// Log writes each alert to the structured log.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(_ context.Context, message string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if message == "" {
		message = DefaultMessage
	}
	logger.Info("Alert fired", "message", message)
	return nil
}
