package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"staysync-backend/internal/pkg/errs"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// tokenRefreshMargin: refresh the cached bearer when it is this close to expiry.
const tokenRefreshMargin = 5 * time.Minute

// Config holds upstream client settings.
type Config struct {
	APIURL       string
	TokenURL     string
	ClientID     string
	ClientSecret string

	MaxRPS      float64 // requests-per-second ceiling
	MaxInflight int     // max concurrent in-flight requests

	RetryAttempts      int           // data-request retries (default 4)
	RetryBaseDelay     time.Duration // first backoff delay (default 1s)
	TokenRetryAttempts int           // token-acquisition retries (default 5)
	HTTPTimeout        time.Duration // per-request timeout (default 30s)
}

func (c Config) withDefaults() Config {
	if c.MaxRPS <= 0 {
		c.MaxRPS = 2
	}
	if c.MaxInflight <= 0 {
		c.MaxInflight = 3
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 4
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.TokenRetryAttempts <= 0 {
		c.TokenRetryAttempts = 5
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 30 * time.Second
	}
	return c
}

// Client talks to the upstream PMS API. It owns the cached bearer token and
// throttles outbound requests below the upstream's published limits: a
// requests-per-second limiter plus an in-flight semaphore. Requests beyond
// either ceiling queue rather than fail. The client never writes to the
// local store.
type Client struct {
	cfg      Config
	httpc    *http.Client
	limiter  *rate.Limiter
	inflight chan struct{}
	breaker  *gobreaker.CircuitBreaker[[]byte]

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a Client. Construct once and share; token state is
// process-wide by design.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:      cfg,
		httpc:    &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.MaxRPS), 1),
		inflight: make(chan struct{}, cfg.MaxInflight),
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "pms-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Upstream circuit breaker state change")
		},
	})
	return c
}

// FetchListing returns one listing by id.
func (c *Client) FetchListing(ctx context.Context, id string) (*APIListing, error) {
	body, err := c.get(ctx, "fetch_listing", "/listings/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var out APIListing
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &errs.ExternalAPIError{Op: "fetch_listing", Err: err}
	}
	return &out, nil
}

// FetchCalendar returns the availability days for [start, end], both
// inclusive, as YYYY-MM-DD property-local dates.
func (c *Client) FetchCalendar(ctx context.Context, id, start, end string) ([]APIDay, error) {
	q := url.Values{"start": {start}, "end": {end}}
	body, err := c.get(ctx, "fetch_calendar", "/listings/"+url.PathEscape(id)+"/calendar", q)
	if err != nil {
		return nil, err
	}
	var out calendarResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &errs.ExternalAPIError{Op: "fetch_calendar", Err: err}
	}
	return out.Days, nil
}

// FetchReservations returns all reservations for a listing whose stay
// overlaps [start, end].
func (c *Client) FetchReservations(ctx context.Context, listingID, start, end string) ([]APIReservation, error) {
	q := url.Values{"from": {start}, "to": {end}}
	body, err := c.get(ctx, "fetch_reservations", "/listings/"+url.PathEscape(listingID)+"/reservations", q)
	if err != nil {
		return nil, err
	}
	var out reservationsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &errs.ExternalAPIError{Op: "fetch_reservations", Err: err}
	}
	return out.Reservations, nil
}

// FetchReservation returns one reservation by id.
func (c *Client) FetchReservation(ctx context.Context, id string) (*APIReservation, error) {
	body, err := c.get(ctx, "fetch_reservation", "/reservations/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var out APIReservation
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &errs.ExternalAPIError{Op: "fetch_reservation", Err: err}
	}
	return &out, nil
}

// FetchGuest returns one guest by id.
func (c *Client) FetchGuest(ctx context.Context, id string) (*APIGuest, error) {
	body, err := c.get(ctx, "fetch_guest", "/guests/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var out APIGuest
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &errs.ExternalAPIError{Op: "fetch_guest", Err: err}
	}
	return &out, nil
}

// get runs one throttled, breaker-guarded, retried GET and returns the body.
func (c *Client) get(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	select {
	case c.inflight <- struct{}{}:
		defer func() { <-c.inflight }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.getWithRetry(ctx, op, path, query)
	})
	if err != nil {
		var apiErr *errs.ExternalAPIError
		if errors.As(err, &apiErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// Breaker-open and transport errors surface in the same taxonomy.
		return nil, &errs.ExternalAPIError{Op: op, Err: err}
	}
	return body, nil
}

func (c *Client) getWithRetry(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	var body []byte
	var lastStatus int

	err := retryWithBackoff(ctx, c.cfg.RetryAttempts, c.cfg.RetryBaseDelay, func() error {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return permanent(err)
		}

		u := c.cfg.APIURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastStatus = 0
			return err
		}
		defer resp.Body.Close()
		lastStatus = resp.StatusCode

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err = io.ReadAll(resp.Body)
			return err
		case resp.StatusCode == http.StatusUnauthorized:
			// Token revoked upstream; drop the cache so the next attempt re-acquires.
			c.invalidateToken()
			return fmt.Errorf("unauthorized")
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			log.Warn().Str("op", op).Int("status", resp.StatusCode).Msg("Upstream throttled or failed, retrying")
			return fmt.Errorf("retryable status %d", resp.StatusCode)
		default:
			return permanent(&errs.ExternalAPIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")})
		}
	})
	if err != nil {
		var apiErr *errs.ExternalAPIError
		if errors.As(err, &apiErr) {
			return nil, err
		}
		return nil, &errs.ExternalAPIError{Op: op, StatusCode: lastStatus, Err: err}
	}
	return body, nil
}

// ensureToken returns a bearer token, refreshing when within
// tokenRefreshMargin of expiry. Acquisition has its own bounded retry
// policy, distinct from data-request retries.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > tokenRefreshMargin {
		return c.token, nil
	}

	var tok tokenResponse
	err := retryWithBackoff(ctx, c.cfg.TokenRetryAttempts, c.cfg.RetryBaseDelay, func() error {
		form := url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {c.cfg.ClientID},
			"client_secret": {c.cfg.ClientSecret},
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return permanent(&errs.ExternalAPIError{Op: "token", StatusCode: resp.StatusCode, Err: fmt.Errorf("token request rejected")})
			}
			return fmt.Errorf("token status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
			return permanent(err)
		}
		if tok.AccessToken == "" {
			return permanent(&errs.ExternalAPIError{Op: "token", Err: fmt.Errorf("empty access_token")})
		}
		return nil
	})
	if err != nil {
		var apiErr *errs.ExternalAPIError
		if errors.As(err, &apiErr) {
			return "", err
		}
		return "", &errs.ExternalAPIError{Op: "token", Err: err}
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	log.Info().Time("expires", c.tokenExpiry).Msg("Upstream token refreshed")
	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
