package model

import "github.com/m-mizutani/goerr/v2"

// Error tags classify every failure the run can produce. The fetch client's
// retry policy and the orchestrator's fatal-vs-per-task propagation both key
// off these tags.
var (
	// TagInvalidFilter marks malformed participant filter input, rejected
	// before any network call.
	TagInvalidFilter = goerr.NewTag("invalid_filter")

	// TagAuth marks 401/403 responses. Fatal for the whole run: a rejected
	// token invalidates every remaining task.
	TagAuth = goerr.NewTag("auth")

	// TagNotFound marks 404 responses. Per-task, never retried.
	TagNotFound = goerr.NewTag("not_found")

	// TagRateLimited marks 429 responses. Retried, honoring Retry-After.
	TagRateLimited = goerr.NewTag("rate_limited")

	// TagTransient marks timeouts, connection errors, and 5xx responses.
	TagTransient = goerr.NewTag("transient")

	// TagExhausted marks a task that failed every retry attempt.
	TagExhausted = goerr.NewTag("retry_exhausted")

	// TagIO marks local filesystem failures.
	TagIO = goerr.NewTag("io")

	// TagCancelled marks work ended by caller cancellation.
	TagCancelled = goerr.NewTag("cancelled")
)

// ErrorKind returns a short stable name for the failure class of err,
// suitable for summaries and logs. Returns an empty string for nil.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case goerr.HasTag(err, TagAuth):
		return "auth"
	case goerr.HasTag(err, TagNotFound):
		return "not_found"
	case goerr.HasTag(err, TagInvalidFilter):
		return "invalid_filter"
	case goerr.HasTag(err, TagExhausted):
		return "retry_exhausted"
	case goerr.HasTag(err, TagRateLimited):
		return "rate_limited"
	case goerr.HasTag(err, TagTransient):
		return "transient"
	case goerr.HasTag(err, TagIO):
		return "io"
	case goerr.HasTag(err, TagCancelled):
		return "cancelled"
	default:
		return "unknown"
	}
}
