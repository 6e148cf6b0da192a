package alert

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxIntervalSeconds is the largest interval whose millisecond value still
// fits in a time.Duration.
const MaxIntervalSeconds = math.MaxInt64 / int64(time.Second)

type Request struct {
	IntervalSeconds int64
	Message         string
}

func (r Request) IntervalMillis() int64 {
	return r.IntervalSeconds * 1000
}

// ParseRequest validates raw form input. The message is kept verbatim; the
// interval tolerates surrounding whitespace only.
func ParseRequest(intervalInput, messageInput string) (Request, error) {
	raw := strings.TrimSpace(intervalInput)
	if raw == "" {
		return Request{}, &ValidationError{Field: "interval", Err: ErrEmptyInterval}
	}
	if messageInput == "" {
		return Request{}, &ValidationError{Field: "message", Err: ErrEmptyMessage}
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return Request{}, &ValidationError{Field: "interval", Input: intervalInput, Err: ErrIntervalTooLarge}
		}
		if errors.Is(err, strconv.ErrRange) {
			return Request{}, &ValidationError{Field: "interval", Input: intervalInput, Err: ErrNonPositiveInterval}
		}
		return Request{}, &ValidationError{Field: "interval", Input: intervalInput, Err: ErrInvalidInterval}
	}
	if n <= 0 {
		return Request{}, &ValidationError{Field: "interval", Input: intervalInput, Err: ErrNonPositiveInterval}
	}
	if n > MaxIntervalSeconds {
		return Request{}, &ValidationError{Field: "interval", Input: intervalInput, Err: ErrIntervalTooLarge}
	}

	return Request{IntervalSeconds: n, Message: messageInput}, nil
}

// Confirmation is the text shown back to the user after a successful Set Alert.
func Confirmation(seconds int64, message string) string {
	return fmt.Sprintf("Alert set for every %d seconds: %s", seconds, message)
}
