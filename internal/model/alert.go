package model

import "time"

type RegistrationStatus string

const (
	StatusScheduled RegistrationStatus = "Scheduled"
	StatusCancelled RegistrationStatus = "Cancelled"
)

// Registration is the persisted record of a repeating alert. It plays the
// role of the host alarm registration: the worker owns it, callers only see
// copies.
type Registration struct {
	ID             string             `json:"id"`
	Message        string             `json:"message"`
	IntervalMillis int64              `json:"interval_millis"`
	FirstTrigger   time.Time          `json:"first_trigger"`
	NextTrigger    time.Time          `json:"next_trigger"`
	CreatedAt      time.Time          `json:"created_at"`
	Status         RegistrationStatus `json:"status"`
	FireCount      int                `json:"fire_count"`
	LastFired      time.Time          `json:"last_fired"`
	LastError      string             `json:"last_error,omitempty"`
}

func (r Registration) Interval() time.Duration {
	return time.Duration(r.IntervalMillis) * time.Millisecond
}

func (r Registration) Active() bool {
	return r.Status == StatusScheduled
}

type Settings struct {
	PushoverToken string `json:"pushover_token"`
	PushoverUser  string `json:"pushover_user"`
}

type AppSchema struct {
	Settings Settings      `json:"settings"`
	Alert    *Registration `json:"alert,omitempty"`
}
