package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noahxzhu/interval-alert/internal/alert"
	"github.com/noahxzhu/interval-alert/internal/clock"
	"github.com/noahxzhu/interval-alert/internal/model"
	"github.com/noahxzhu/interval-alert/internal/notify"
	"github.com/noahxzhu/interval-alert/internal/storage"
	"github.com/noahxzhu/interval-alert/internal/worker"
)

func newTestServer(t *testing.T, password string) (*Server, *worker.Worker, *storage.Store) {
	t.Helper()
	store := storage.NewStore(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, store.Load())

	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	w := worker.NewWorker(store, notify.Log{}, worker.WithClock(clk))
	return NewServer(store, alert.NewScheduler(w), password), w, store
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSetAlertForm(t *testing.T) {
	srv, w, _ := newTestServer(t, "")

	rec := postForm(t, srv, "/alert", url.Values{"interval": {"30"}, "message": {"Drink water"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alert set for every 30 seconds: Drink water")

	reg, ok := w.Active()
	require.True(t, ok)
	assert.Equal(t, "Drink water", reg.Message)
	assert.Equal(t, int64(30000), reg.IntervalMillis)
}

func TestSetAlertFormRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		interval string
		message  string
		want     string
	}{
		{"non numeric", "abc", "Drink water", "whole number of seconds"},
		{"zero", "0", "Drink water", "greater than zero"},
		{"empty interval", "", "Drink water", "interval is required"},
		{"empty message", "30", "", "message is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, w, _ := newTestServer(t, "")

			rec := postForm(t, srv, "/alert", url.Values{"interval": {tc.interval}, "message": {tc.message}})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
			assert.NotContains(t, rec.Body.String(), "Alert set for every")

			_, ok := w.Active()
			assert.False(t, ok)
		})
	}
}

type brokenTimers struct{}

func (brokenTimers) ScheduleRepeating(context.Context, time.Duration, string) (model.Registration, error) {
	return model.Registration{}, errors.New("disk full")
}
func (brokenTimers) Cancel(context.Context) error       { return nil }
func (brokenTimers) Active() (model.Registration, bool) { return model.Registration{}, false }

func TestSetAlertFormSurfacesRegistrationFailure(t *testing.T) {
	store := storage.NewStore(filepath.Join(t.TempDir(), "data.json"))
	srv := NewServer(store, alert.NewScheduler(brokenTimers{}), "")

	rec := postForm(t, srv, "/alert", url.Values{"interval": {"30"}, "message": {"Drink water"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk full")
	assert.NotContains(t, rec.Body.String(), "Alert set for every")
}

func TestCancelForm(t *testing.T) {
	srv, w, _ := newTestServer(t, "")

	postForm(t, srv, "/alert", url.Values{"interval": {"30"}, "message": {"Drink water"}})
	rec := postForm(t, srv, "/cancel", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	_, ok := w.Active()
	assert.False(t, ok)
}

func TestSettingsForm(t *testing.T) {
	srv, _, store := newTestServer(t, "")

	rec := postForm(t, srv, "/settings", url.Values{"pushover_token": {" tok "}, "pushover_user": {"usr"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, model.Settings{PushoverToken: "tok", PushoverUser: "usr"}, store.GetSettings())
}

func TestPasswordProtection(t *testing.T) {
	srv, _, _ := newTestServer(t, "secret")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = postForm(t, srv, "/login", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postForm(t, srv, "/login", url.Values{"password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No alert scheduled.")
}

func TestAPIWithClient(t *testing.T) {
	srv, _, _ := newTestServer(t, "secret")
	ts := httptest.NewServer(srv)
	defer ts.Close()
	ctx := context.Background()

	_, err := NewClient(ts.URL, "").Status(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	c := NewClient(ts.URL, "secret")

	reg, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, reg)

	confirmation, err := c.SetAlert(ctx, "30", "Drink water")
	require.NoError(t, err)
	assert.Equal(t, "Alert set for every 30 seconds: Drink water", confirmation)

	_, err = c.SetAlert(ctx, "abc", "Drink water")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "interval", apiErr.Field)

	reg, err = c.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Equal(t, "Drink water", reg.Message)

	require.NoError(t, c.Cancel(ctx))
	reg, err = c.Status(ctx)
	require.NoError(t, err)
	assert.Nil(t, reg)
}

func TestAPIRejectsMalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/alert", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "invalid JSON body")
}
