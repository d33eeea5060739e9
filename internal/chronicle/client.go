package chronicle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/methodic-labs/chronicle-bulk-downloader/internal/chronicle/dto"
	"github.com/methodic-labs/chronicle-bulk-downloader/internal/model"
)

// DefaultBaseURL is the production Chronicle API host.
const DefaultBaseURL = "https://api.getmethodic.com"

// Options configures the API client.
type Options struct {
	// BaseURL is the API host, without a trailing slash.
	BaseURL string

	// Token is the bearer token applied to every request.
	Token string

	// Timeout bounds each individual request.
	Timeout time.Duration

	// Retry is the retry/backoff policy for transient failures.
	Retry RetryPolicy

	// UserAgent identifies the client to the API.
	UserAgent string
}

// DefaultOptions returns options for the production API with the default
// retry policy.
func DefaultOptions(token string) Options {
	return Options{
		BaseURL:   DefaultBaseURL,
		Token:     token,
		Timeout:   60 * time.Second,
		Retry:     DefaultRetryPolicy(),
		UserAgent: "chronicle-bulk-downloader",
	}
}

// Client performs authenticated requests against the Chronicle API.
type Client struct {
	httpClient *http.Client
	opts       Options
}

// NewClient creates a new API client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "chronicle-bulk-downloader"
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
	}
}

// BaseURL returns the configured API host.
func (c *Client) BaseURL() string {
	return c.opts.BaseURL
}

// DataURL builds the download target for one (participant, data type)
// pair. Study data types use the study endpoint with fileType=csv;
// time-use-diary types use the time-use-diary endpoint. Optional start and
// end dates bound the requested range when non-zero.
func DataURL(baseURL, studyID, participantID string, dt model.DataType, start, end time.Time) string {
	var endpoint string
	if dt.TimeUseDiary() {
		endpoint = fmt.Sprintf("%s/chronicle/v3/time-use-diary/%s/participants/data",
			baseURL, url.PathEscape(studyID))
	} else {
		endpoint = fmt.Sprintf("%s/chronicle/v3/study/%s/participants/data",
			baseURL, url.PathEscape(studyID))
	}

	q := url.Values{}
	q.Set("participantId", participantID)
	q.Set("dataType", dt.APIValue())
	if !dt.TimeUseDiary() {
		q.Set("fileType", "csv")
	}
	if !start.IsZero() {
		q.Set("startDate", start.Format("2006-01-02"))
	}
	if !end.IsZero() {
		q.Set("endDate", end.Format("2006-01-02"))
	}

	return endpoint + "?" + q.Encode()
}

// ListParticipants fetches the participant universe of a study from the
// participant stats endpoint.
func (c *Client) ListParticipants(ctx context.Context, studyID string) ([]string, error) {
	statsURL := fmt.Sprintf("%s/chronicle/v3/study/%s/participants/stats",
		c.opts.BaseURL, url.PathEscape(studyID))

	data, _, err := c.Fetch(ctx, statsURL)
	if err != nil {
		return nil, goerr.Wrap(err, "fetch participant stats", goerr.V("study", studyID))
	}

	var stats dto.StatsResponse
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, goerr.Wrap(err, "decode participant stats", goerr.V("study", studyID))
	}

	return stats.ParticipantIDs(), nil
}

// Fetch downloads one target, retrying transient failures under the
// client's retry policy. It returns the raw payload (possibly empty) and
// the number of attempts made.
func (c *Client) Fetch(ctx context.Context, target string) ([]byte, int, error) {
	var lastErr error

	attempts := 0
	for attempt := 1; attempt <= c.opts.Retry.MaxAttempts; attempt++ {
		attempts = attempt

		data, retryAfter, err := c.get(ctx, target)
		if err == nil {
			return data, attempts, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, attempts, err
		}
		if attempt == c.opts.Retry.MaxAttempts {
			break
		}

		if err := c.opts.Retry.Wait(ctx, attempt, retryAfter); err != nil {
			return nil, attempts, goerr.Wrap(err, "fetch aborted during backoff",
				goerr.T(model.TagCancelled))
		}
	}

	return nil, attempts, goerr.Wrap(lastErr, "retry budget exhausted",
		goerr.V("attempts", attempts), goerr.T(model.TagExhausted))
}

// get performs a single authenticated GET. On 429 the returned duration
// carries the parsed Retry-After hint.
func (c *Client) get(ctx context.Context, target string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, goerr.Wrap(err, "request cancelled", goerr.T(model.TagCancelled))
		}
		return nil, 0, goerr.Wrap(err, "request failed", goerr.T(model.TagTransient))
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		var retryAfter time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return nil, retryAfter, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, goerr.Wrap(err, "response read cancelled", goerr.T(model.TagCancelled))
		}
		return nil, 0, goerr.Wrap(err, "read response body", goerr.T(model.TagTransient))
	}

	return body, 0, nil
}

// classifyStatus maps an HTTP status to a tagged error, or nil for 2xx.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return goerr.New("authorization rejected",
			goerr.V("status", code), goerr.T(model.TagAuth))
	case code == http.StatusNotFound:
		return goerr.New("no data found",
			goerr.V("status", code), goerr.T(model.TagNotFound))
	case code == http.StatusTooManyRequests:
		return goerr.New("rate limited by server",
			goerr.V("status", code), goerr.T(model.TagRateLimited))
	case code >= 500:
		return goerr.New("server error",
			goerr.V("status", code), goerr.T(model.TagTransient))
	default:
		return goerr.New("unexpected response status",
			goerr.V("status", code))
	}
}

// retryable reports whether err is worth another attempt.
func retryable(err error) bool {
	return goerr.HasTag(err, model.TagTransient) || goerr.HasTag(err, model.TagRateLimited)
}

// parseRetryAfter interprets a Retry-After header as either delay seconds
// or an HTTP date. Returns 0 when absent or unparseable.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
