// Package botapi talks to the external bot service that holds live Discord state.
//
// The bot service is best-effort. Fetch never returns an error: any failure
// (not configured, connection refused, timeout, non-2xx, bad JSON) is reported
// as false, and the caller serves the static default for that resource instead.
// There are no retries; a failed call falls through to the default at once.
package botapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sakif/guild-dashboard/internal/config"
)

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 1 << 20

// Client is a bearer-token HTTP client for the bot service.
// It is safe for concurrent use; its fields are read-only after New.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// New builds a Client from the injected configuration. A config without URL
// or token yields a disabled client whose Fetch always returns false without
// any network traffic.
func New(cfg config.BotConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultBotTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Enabled reports whether the client will attempt remote calls.
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.token != ""
}

// Fetch GETs path (plus query, if any) and decodes the JSON body into out.
// It returns true only when the whole round trip succeeded within the timeout.
func (c *Client) Fetch(ctx context.Context, path string, query url.Values, out any) bool {
	if !c.Enabled() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		c.logger.Warn("bot api: building request", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("bot api unavailable",
			slog.String("path", path),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.Debug("bot api returned non-success status",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return false
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		c.logger.Warn("bot api: decoding response",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}

// Resource names of the per-guild endpoints on the bot service.
const (
	ResourceEconomy    = "economy"
	ResourceMembers    = "members"
	ResourceXP         = "xp"
	ResourceModeration = "moderation"
	ResourceLogs       = "logs"
	ResourceGiveaways  = "giveaways"
)

// StatusPath is the bot-wide status endpoint.
const StatusPath = "/status"

// GuildPath returns "/guilds/<id>/<resource>" with the id path-escaped.
func GuildPath(guildID, resource string) string {
	return fmt.Sprintf("/guilds/%s/%s", url.PathEscape(guildID), resource)
}
