package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/oshokin/ward-monitor/internal/version"
)

var (
	// ErrBadStatus is returned for a non-2xx HTTP status.
	ErrBadStatus = errors.New("unexpected http status")
	// ErrNotOK is returned when the API answers ok=false.
	ErrNotOK = errors.New("bot API reported failure")
	// ErrMalformed is returned when the response cannot be decoded.
	ErrMalformed = errors.New("malformed bot API response")

	// errTokenRequired is returned by NewClient without a token.
	errTokenRequired = errors.New("bot token must be provided")
)

// Defaults for calls without explicit options.
const (
	defaultBaseURL     = "https://api.telegram.org"
	defaultCallTimeout = 5 * time.Second
	defaultSendTimeout = 10 * time.Second
	defaultBurst       = 3
)

// Client talks to the Bot API.
type Client struct {
	http  *resty.Client
	token string

	callTimeout time.Duration
	sendTimeout time.Duration
	limiter     *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.http.SetBaseURL(strings.TrimRight(baseURL, "/"))
		}
	}
}

// WithCallTimeout bounds getMe and getUpdates.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithSendTimeout bounds sendMessage, including time spent waiting for the limiter.
func WithSendTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.sendTimeout = timeout
		}
	}
}

// WithRateLimit caps outbound messages per second. Zero or negative disables it.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}

		c.limiter = rate.NewLimiter(rate.Limit(perSecond), defaultBurst)
	}
}

// NewClient creates a client for the bot identified by token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errTokenRequired
	}

	c := &Client{
		http: resty.New().
			SetBaseURL(defaultBaseURL).
			SetHeader("User-Agent", version.UserAgent()).
			SetHeader("Accept", "application/json"),
		token:       token,
		callTimeout: defaultCallTimeout,
		sendTimeout: defaultSendTimeout,
		limiter:     rate.NewLimiter(rate.Limit(1), defaultBurst),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetMe returns the bot's own identity.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(callCtx).
		Get(c.method("getMe"))
	if err != nil {
		return nil, c.scrub(fmt.Errorf("getMe: %w", err))
	}

	var me User
	if err = decode(resp, &me); err != nil {
		return nil, fmt.Errorf("getMe: %w", err)
	}

	return &me, nil
}

// GetUpdates long-polls for updates with id >= offset. pollTimeout is the
// server-side wait; the HTTP call is bounded by the client call timeout.
func (c *Client) GetUpdates(ctx context.Context, offset int64, pollTimeout time.Duration) ([]Update, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	seconds := int64(math.Ceil(pollTimeout.Seconds()))

	resp, err := c.http.R().
		SetContext(callCtx).
		SetQueryParam("offset", strconv.FormatInt(offset, 10)).
		SetQueryParam("timeout", strconv.FormatInt(seconds, 10)).
		Get(c.method("getUpdates"))
	if err != nil {
		return nil, c.scrub(fmt.Errorf("getUpdates: %w", err))
	}

	var updates []Update
	if err = decode(resp, &updates); err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}

	return updates, nil
}

// SendMessage posts req as JSON.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	callCtx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	if err := c.limiter.Wait(callCtx); err != nil {
		return fmt.Errorf("sendMessage rate limit: %w", err)
	}

	resp, err := c.http.R().
		SetContext(callCtx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.method("sendMessage"))
	if err != nil {
		return c.scrub(fmt.Errorf("sendMessage: %w", err))
	}

	if err = decode(resp, nil); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}

	return nil
}

func (c *Client) method(name string) string {
	return "/bot" + c.token + "/" + name
}

// decode checks the status and envelope and unmarshals the result into out.
func decode(resp *resty.Response, out any) error {
	var env envelope

	decodeErr := json.Unmarshal(resp.Body(), &env)

	if resp.IsError() {
		if decodeErr == nil && env.Description != "" {
			return fmt.Errorf("%w: %d: %s", ErrBadStatus, resp.StatusCode(), env.Description)
		}

		return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status())
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, decodeErr)
	}

	if !env.OK {
		return fmt.Errorf("%w: %s", ErrNotOK, env.Description)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w: result: %w", ErrMalformed, err)
	}

	return nil
}

// scrub hides the bot token that transport errors echo through the URL.
func (c *Client) scrub(err error) error {
	return &scrubbedError{
		msg: strings.ReplaceAll(err.Error(), c.token, "<token>"),
		err: err,
	}
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }

func (e *scrubbedError) Unwrap() error { return e.err }
