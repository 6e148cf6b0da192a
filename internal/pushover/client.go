package pushover

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/noahxzhu/interval-alert/internal/model"
)

const DefaultAPIURL = "https://api.pushover.net/1/messages.json"

type Client struct {
	Token  string
	User   string
	APIURL string
	HTTP   *http.Client

	limiter *rate.Limiter
}

// NewClient builds a client that sends at most one message per minInterval.
func NewClient(token, user string, minInterval time.Duration) *Client {
	return &Client{
		Token:   token,
		User:    user,
		APIURL:  DefaultAPIURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
	}
}

func (c *Client) SendMessage(ctx context.Context, title, message string) error {
	// Waits for a slot rather than dropping the alert; the caller's deadline
	// bounds the wait.
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("pushover: rate limit wait: %w", err)
		}
	}

	apiURL := c.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	params := url.Values{}
	params.Set("token", c.Token)
	params.Set("user", c.User)
	params.Set("title", title)
	params.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pushover api error: status %s, body %s", resp.Status, string(body))
	}

	return nil
}

type SettingsSource interface {
	GetSettings() model.Settings
}

// Notifier pushes fired alerts to the user's devices, so they are seen even
// when nothing is watching the local machine. Credentials are read from the
// stored settings on every call.
type Notifier struct {
	settings SettingsSource
	client   *Client
	title    string
}

func NewNotifier(settings SettingsSource, client *Client, title string) *Notifier {
	return &Notifier{settings: settings, client: client, title: title}
}

func (n *Notifier) Notify(ctx context.Context, message string) error {
	s := n.settings.GetSettings()
	if s.PushoverToken == "" || s.PushoverUser == "" {
		slog.Debug("Pushover credentials missing, skipping push")
		return nil
	}

	n.client.Token = s.PushoverToken
	n.client.User = s.PushoverUser

	if err := n.client.SendMessage(ctx, n.title, message); err != nil {
		return fmt.Errorf("failed to send pushover message: %w", err)
	}
	return nil
}
