package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/oshokin/ward-monitor/internal/domain/ward"
	"github.com/oshokin/ward-monitor/internal/logger"
	"github.com/oshokin/ward-monitor/internal/version"
)

var (
	// ErrBadStatus is returned for a non-2xx HTTP status.
	ErrBadStatus = errors.New("unexpected http status")
	// ErrRejected is returned when the dashboard answers with entry id 0,
	// which it does for rate-limited or invalid updates.
	ErrRejected = errors.New("update rejected by dashboard")

	errAPIKeyRequired = errors.New("telemetry api key must be provided")
)

const defaultTimeout = 10 * time.Second

// HTTPSink sends each snapshot as a GET update request.
type HTTPSink struct {
	http    *resty.Client
	url     string
	apiKey  string
	timeout time.Duration
}

// NewHTTPSink creates a sink posting to updateURL with apiKey.
func NewHTTPSink(updateURL, apiKey string, timeout time.Duration) (*HTTPSink, error) {
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPSink{
		http:    resty.New().SetHeader("User-Agent", version.UserAgent()),
		url:     updateURL,
		apiKey:  apiKey,
		timeout: timeout,
	}, nil
}

// Push implements Sink.
func (s *HTTPSink) Push(ctx context.Context, snapshot ward.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := s.http.R().
		SetContext(ctx).
		SetQueryParam("api_key", s.apiKey)

	for _, f := range Fields(snapshot) {
		req.SetQueryParam(f.Name, f.Value)
	}

	resp, err := req.Get(s.url)
	if err != nil {
		return fmt.Errorf("push telemetry: %w", s.scrub(err))
	}

	if resp.IsError() {
		return fmt.Errorf("push telemetry: %w: %d", ErrBadStatus, resp.StatusCode())
	}

	entry := strings.TrimSpace(resp.String())
	if entry == "0" {
		return fmt.Errorf("push telemetry: %w", ErrRejected)
	}

	logger.DebugKV(ctx, "Telemetry pushed", "entry_id", entry)

	return nil
}

// scrub keeps the api key out of errors that embed the request URL.
func (s *HTTPSink) scrub(err error) error {
	if !strings.Contains(err.Error(), s.apiKey) {
		return err
	}

	return &scrubbedError{msg: strings.ReplaceAll(err.Error(), s.apiKey, "<api_key>"), err: err}
}

type scrubbedError struct {
	msg string
	err error
}

func (e *scrubbedError) Error() string { return e.msg }

func (e *scrubbedError) Unwrap() error { return e.err }
