package pushover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noahxzhu/interval-alert/internal/model"
)

type staticSettings model.Settings

func (s staticSettings) GetSettings() model.Settings { return model.Settings(s) }

func TestNotifierSendsMessage(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"token":   r.PostForm.Get("token"),
			"user":    r.PostForm.Get("user"),
			"title":   r.PostForm.Get("title"),
			"message": r.PostForm.Get("message"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("", "", time.Millisecond)
	client.APIURL = srv.URL

	n := NewNotifier(staticSettings{PushoverToken: "tok", PushoverUser: "usr"}, client, "Alert")
	require.NoError(t, n.Notify(context.Background(), "Drink water"))

	assert.Equal(t, map[string]string{
		"token":   "tok",
		"user":    "usr",
		"title":   "Alert",
		"message": "Drink water",
	}, form)
}

func TestNotifierSkipsWithoutCredentials(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient("", "", time.Millisecond)
	client.APIURL = srv.URL

	n := NewNotifier(staticSettings{}, client, "Alert")
	require.NoError(t, n.Notify(context.Background(), "Drink water"))
	assert.False(t, called)
}

func TestSendMessageErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":0,"errors":["application token is invalid"]}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient("tok", "usr", time.Hour)
	client.APIURL = srv.URL

	err := client.SendMessage(context.Background(), "Alert", "Drink water")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application token is invalid")
}

func TestSendMessageWaitsForRateLimit(t *testing.T) {
	var mu sync.Mutex
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = append(got, r.FormValue("message"))
		mu.Unlock()
	}))
	defer srv.Close()

	client := NewClient("tok", "usr", 50*time.Millisecond)
	client.APIURL = srv.URL

	require.NoError(t, client.SendMessage(context.Background(), "Alert", "first"))
	began := time.Now()
	require.NoError(t, client.SendMessage(context.Background(), "Alert", "second"))
	assert.GreaterOrEqual(t, time.Since(began), 30*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"first", "second"}, got)
	mu.Unlock()
}

func TestSendMessageGivesUpAtDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := NewClient("tok", "usr", time.Hour)
	client.APIURL = srv.URL
	require.NoError(t, client.SendMessage(context.Background(), "Alert", "first"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := client.SendMessage(ctx, "Alert", "second")
	assert.ErrorContains(t, err, "rate limit wait")
}
