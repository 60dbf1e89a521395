// Package remote defines the abstract upstream capability Ingestion
// and Unfavorite consume. Per spec.md §1, the real HTTP client
// (request signing, cookie jar, retry) is an external collaborator and
// is deliberately not implemented here — only the interface and error
// taxonomy it must honor.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RawPost is the undecoded JSON shape of one post as returned by the
// upstream paginated endpoints. Ingestion's normalization pass is the
// only place that reads these fields; every optional field is a
// pointer or omitempty so a missing field never panics a decode.
type RawPost json.RawMessage

// RawPostsPage is one page of raw posts plus whatever total the
// upstream chooses to report (spec.md §9: the total is heuristic and
// tests must not assert on it).
type RawPostsPage struct {
	Posts        []RawPost
	ReportedTotal int
}

// Ack is the upstream's response to a mutating call like Unfavorite.
type Ack struct {
	OK              bool
	AlreadyNotFavorited bool
}

// Client is the capability Ingestion and Unfavorite are built against.
// A production implementation lives outside this module's scope; see
// remote.Fake for the test double used throughout this package's
// dependents' tests.
type Client interface {
	FetchFavoritesPage(ctx context.Context, page int) (RawPostsPage, error)
	FetchUserTimelinePage(ctx context.Context, uid int64, page int, filter TimelineFilter) (RawPostsPage, error)
	FetchPost(ctx context.Context, id int64) (RawPost, error)
	Unfavorite(ctx context.Context, id int64) (Ack, error)
	FetchBytes(ctx context.Context, url string) ([]byte, error)
	SearchUsers(ctx context.Context, prefix string) ([]UserHit, error)
}

// TimelineFilter narrows a user-timeline page fetch to a content type.
type TimelineFilter int

const (
	FilterAll TimelineFilter = iota
	FilterOriginalOnly
	FilterPicture
	FilterVideo
	FilterArticle
)

// UserHit is one row from SearchUsers.
type UserHit struct {
	ID         int64
	ScreenName string
}

// TransientError wraps a retryable failure: timeout, DNS, connection
// reset. Ingestion retries these with backoff; once retries are
// exhausted it's recorded as a subtask error (media) or a fatal
// escalation (paging — see spec.md §7).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// RateLimitedError signals a 429. RetryAfter is the upstream's
// requested backoff, if it sent one; callers fall back to a 2-5s
// jittered sleep when it's zero.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate_limited retry_after=%s", e.RetryAfter)
}

// PermanentError wraps a non-retryable HTTP status (4xx other than
// 429).
type PermanentError struct {
	Status int
}

func (e *PermanentError) Error() string { return fmt.Sprintf("permanent status=%d", e.Status) }

// DecodeError wraps malformed JSON for a single record. Per spec.md
// §4.3/§7 this is always non-fatal: the record is skipped, the page
// continues.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }
