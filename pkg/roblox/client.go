package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/zuxsoft/RobAccounts/pkg/logger"
)

// endpoints holds the API base URLs, overridable in tests.
type endpoints struct {
	users    string
	presence string
	auth     string
	games    string
}

func defaultEndpoints() endpoints {
	return endpoints{
		users:    "https://users.roblox.com",
		presence: "https://presence.roblox.com",
		auth:     "https://auth.roblox.com",
		games:    "https://games.roblox.com",
	}
}

// client implements Client over net/http.
type client struct {
	http     *http.Client
	limiter  *RateLimiter
	cache    *idCache
	launcher *Launcher
	logger   logger.Logger
	config   Config
	api      endpoints

	// Injectable for tests.
	sleep func(time.Duration)

	mu     sync.Mutex
	closed bool
}

// New creates a Roblox API client.
func New(cfg Config, launcher *Launcher, log logger.Logger) (Client, error) {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	cache, err := openIDCache(cfg.CachePath, log)
	if err != nil {
		return nil, err
	}

	c := &client{
		http:     &http.Client{Timeout: cfg.RequestTimeout},
		limiter:  NewRateLimiter(cfg.MinRequestInterval, log),
		cache:    cache,
		launcher: launcher,
		logger:   log,
		config:   cfg,
		api:      defaultEndpoints(),
		sleep:    time.Sleep,
	}

	log.Debug("roblox client created",
		"min_request_interval", cfg.MinRequestInterval,
		"request_timeout", cfg.RequestTimeout)

	return c, nil
}

// Presence implements Client.Presence.
func (c *client) Presence(ctx context.Context, userID int64, token string) (*Presence, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	c.limiter.Wait()

	csrf, err := c.csrfToken(ctx, token)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string][]int64{"userIds": {userID}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal presence request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.api.presence+"/v1/presence/users", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build presence request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-TOKEN", csrf)
	setSessionCookie(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: presence: %v", ErrRequestFailed, err)
	}
	defer closeBody(resp, c.logger)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: presence returned %d", ErrUnauthenticated, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: presence returned %d", ErrRequestFailed, resp.StatusCode)
	}

	var body struct {
		UserPresences []struct {
			UserPresenceType int    `json:"userPresenceType"`
			LastLocation     string `json:"lastLocation"`
			PlaceID          int64  `json:"placeId"`
			RootPlaceID      int64  `json:"rootPlaceId"`
			GameID           string `json:"gameId"`
			UserID           int64  `json:"userId"`
		} `json:"userPresences"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode presence response: %v", ErrRequestFailed, err)
	}
	if len(body.UserPresences) == 0 {
		return nil, fmt.Errorf("%w: empty presence response", ErrRequestFailed)
	}

	p := body.UserPresences[0]
	presence := &Presence{
		UserID:       p.UserID,
		Type:         p.UserPresenceType,
		LastLocation: p.LastLocation,
	}
	if p.UserPresenceType == PresenceInGame {
		presence.PlaceID = p.PlaceID
		presence.RootPlaceID = p.RootPlaceID
		presence.JobID = p.GameID
	}

	c.logger.Debug("presence reading",
		"user_id", userID,
		"type", presence.Type,
		"job_id", presence.JobID)

	return presence, nil
}

// ResolveUserID implements Client.ResolveUserID.
func (c *client) ResolveUserID(ctx context.Context, username string) (int64, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}

	if id := c.cache.get(username); id != 0 {
		c.logger.Debug("user id from cache", "username", username, "user_id", id)
		return id, nil
	}

	payload, err := json.Marshal(map[string]any{
		"usernames":          []string{username},
		"excludeBannedUsers": false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal lookup request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			default:
			}
		}

		c.limiter.Wait()

		id, retryAfter, err := c.lookupUserID(ctx, username, payload)
		if err == nil {
			c.cache.put(username, id)
			return id, nil
		}
		if !retryable(err) {
			return 0, err
		}

		lastErr = err
		if attempt < c.config.MaxRetries-1 {
			delay := retryAfter
			if delay == 0 {
				delay = time.Duration(math.Pow(2, float64(attempt))) * time.Second
			}
			c.logger.Warn("user id lookup failed, retrying",
				"username", username,
				"attempt", attempt+1,
				"delay", delay,
				"error", err)
			c.sleep(delay)
		}
	}

	return 0, lastErr
}

// lookupUserID performs one id lookup attempt. A non-zero retryAfter carries
// the server's 429 Retry-After hint.
func (c *client) lookupUserID(ctx context.Context, username string, payload []byte) (id int64, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.api.users+"/v1/usernames/users", bytes.NewReader(payload))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: user lookup: %v", ErrRequestFailed, err)
	}
	defer closeBody(resp, c.logger)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if after, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil {
			retryAfter = time.Duration(after) * time.Second
		}
		return 0, retryAfter, fmt.Errorf("%w: user lookup for %q", ErrRateLimited, username)

	case resp.StatusCode != http.StatusOK:
		return 0, 0, fmt.Errorf("%w: user lookup returned %d", ErrRequestFailed, resp.StatusCode)
	}

	var body struct {
		Data []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("%w: failed to decode lookup response: %v", ErrRequestFailed, err)
	}
	if len(body.Data) == 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	return body.Data[0].ID, 0, nil
}

// Validate implements Client.Validate.
func (c *client) Validate(ctx context.Context, token string) (*AuthenticatedUser, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.api.users+"/v1/users/authenticated", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build validate request: %w", err)
	}
	setSessionCookie(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: validate: %v", ErrRequestFailed, err)
	}
	defer closeBody(resp, c.logger)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: validate returned %d", ErrUnauthenticated, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: validate returned %d", ErrRequestFailed, resp.StatusCode)
	}

	var user AuthenticatedUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: failed to decode identity: %v", ErrRequestFailed, err)
	}

	return &user, nil
}

// AuthTicket implements Client.AuthTicket.
//
// The ticket endpoint rejects the first call with 403 and a fresh CSRF token
// in the response headers; the call is repeated with that token.
func (c *client) AuthTicket(ctx context.Context, token string) (string, error) {
	if err := c.checkOpen(); err != nil {
		return "", err
	}

	c.limiter.Wait()

	first, err := c.ticketRequest(ctx, token, "")
	if err != nil {
		return "", err
	}
	csrf := first.Header.Get("x-csrf-token")
	closeBody(first, c.logger)

	if first.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("%w: ticket endpoint returned 401", ErrUnauthenticated)
	}
	if csrf == "" {
		return "", fmt.Errorf("%w: no CSRF challenge (status %d)", ErrNoTicket, first.StatusCode)
	}

	second, err := c.ticketRequest(ctx, token, csrf)
	if err != nil {
		return "", err
	}
	defer closeBody(second, c.logger)

	if second.StatusCode != http.StatusOK {
		if second.StatusCode == http.StatusUnauthorized || second.StatusCode == http.StatusForbidden {
			return "", fmt.Errorf("%w: ticket endpoint returned %d", ErrUnauthenticated, second.StatusCode)
		}
		return "", fmt.Errorf("%w: ticket endpoint returned %d", ErrNoTicket, second.StatusCode)
	}

	ticket := second.Header.Get("rbx-authentication-ticket")
	if ticket == "" {
		return "", fmt.Errorf("%w: ticket header missing", ErrNoTicket)
	}

	return ticket, nil
}

// ticketRequest issues one POST to the authentication-ticket endpoint.
func (c *client) ticketRequest(ctx context.Context, token, csrf string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.api.auth+"/v1/authentication-ticket/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ticket request: %w", err)
	}
	req.Header.Set("User-Agent", "Roblox/WinInet")
	req.Header.Set("Referer", "https://www.roblox.com/develop")
	req.Header.Set("RBX-For-Gameauth", "true")
	req.Header.Set("Content-Type", "application/json")
	setSessionCookie(req, token)
	if csrf != "" {
		req.Header.Set("X-CSRF-TOKEN", csrf)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: auth ticket: %v", ErrRequestFailed, err)
	}
	return resp, nil
}

// Servers implements Client.Servers.
func (c *client) Servers(ctx context.Context, placeID int64) ([]Server, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	c.limiter.Wait()

	url := fmt.Sprintf("%s/v1/games/%d/servers/Public?sortOrder=Asc&limit=100", c.api.games, placeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build servers request: %w", err)
	}
	req.Header.Set("User-Agent", "Roblox/WinInet")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: server list: %v", ErrRequestFailed, err)
	}
	defer closeBody(resp, c.logger)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server list returned %d", ErrRequestFailed, resp.StatusCode)
	}

	var body struct {
		Data []Server `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: failed to decode server list: %v", ErrRequestFailed, err)
	}

	return body.Data, nil
}

// SmallestServer implements Client.SmallestServer.
func (c *client) SmallestServer(ctx context.Context, placeID int64) (*Server, error) {
	servers, err := c.Servers(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: place %d", ErrNoServers, placeID)
	}

	// Prefer servers with open slots; fall back to the least full overall.
	var best *Server
	for i := range servers {
		s := &servers[i]
		if s.Playing >= s.MaxPlayers {
			continue
		}
		if best == nil || s.Playing < best.Playing {
			best = s
		}
	}
	if best == nil {
		best = &servers[0]
		for i := range servers {
			if servers[i].Playing < best.Playing {
				best = &servers[i]
			}
		}
	}

	return best, nil
}

// Close implements Client.Close.
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	return c.cache.close()
}

// WipeCache removes every cached username to user-id mapping.
func (c *client) WipeCache() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	return c.cache.wipe()
}

// csrfToken obtains a CSRF token via the logout endpoint, which returns one
// for any authenticated POST.
func (c *client) csrfToken(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.api.auth+"/v2/logout", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build csrf request: %w", err)
	}
	setSessionCookie(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: csrf: %v", ErrRequestFailed, err)
	}
	defer closeBody(resp, c.logger)

	csrf := resp.Header.Get("x-csrf-token")
	if csrf == "" {
		return "", fmt.Errorf("%w: no CSRF token issued", ErrRequestFailed)
	}

	return csrf, nil
}

func (c *client) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}

// retryable reports whether an id lookup error is worth another attempt.
func retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrUnauthenticated):
		return false
	default:
		return true
	}
}

func setSessionCookie(req *http.Request, token string) {
	req.AddCookie(&http.Cookie{Name: ".ROBLOSECURITY", Value: token})
}

func closeBody(resp *http.Response, log logger.Logger) {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		log.Debug("failed to drain response body", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		log.Debug("failed to close response body", "error", err)
	}
}
