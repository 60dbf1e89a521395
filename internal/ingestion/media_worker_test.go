package ingestion

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/weiback-dev/weiback/internal/remote"
)

type countingClient struct {
	remote.Client
	mu       sync.Mutex
	attempts int
	fail     int // number of times to fail before succeeding
	err      func(attempt int) error
	bytes    []byte
}

func (c *countingClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	c.mu.Lock()
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()
	if attempt <= c.fail {
		return nil, c.err(attempt)
	}
	return c.bytes, nil
}

func TestFetchWithRetry_TransientErrorRetriesThenSucceeds(t *testing.T) {
	client := &countingClient{
		fail:  1,
		bytes: []byte("ok"),
		err:   func(int) error { return &remote.TransientError{Err: context.DeadlineExceeded} },
	}
	b, err := fetchWithRetry(context.Background(), client, "https://img.example/abc.jpg")
	if err != nil {
		t.Fatalf("fetchWithRetry: %v", err)
	}
	if string(b) != "ok" {
		t.Fatalf("expected ok, got %q", b)
	}
	if client.attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", client.attempts)
	}
}

func TestFetchWithRetry_ExhaustsRetriesAndFails(t *testing.T) {
	client := &countingClient{
		fail: 100,
		err:  func(int) error { return &remote.TransientError{Err: context.DeadlineExceeded} },
	}
	_, err := fetchWithRetry(context.Background(), client, "https://img.example/abc.jpg")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if client.attempts != 3 {
		t.Fatalf("expected 3 total attempts (1 + 2 retries), got %d", client.attempts)
	}
}

func TestFetchWithRetry_PermanentErrorNeverRetries(t *testing.T) {
	client := &countingClient{
		fail: 100,
		err:  func(int) error { return &remote.PermanentError{Status: 404} },
	}
	_, err := fetchWithRetry(context.Background(), client, "https://img.example/abc.jpg")
	if err == nil {
		t.Fatal("expected error")
	}
	if client.attempts != 1 {
		t.Fatalf("expected exactly 1 attempt for a permanent error, got %d", client.attempts)
	}
}

func TestFetchWithRetry_RateLimitedRetriesOnce(t *testing.T) {
	client := &countingClient{
		fail:  1,
		bytes: []byte("ok"),
		err:   func(int) error { return &remote.RateLimitedError{RetryAfter: 1 * time.Millisecond} },
	}
	_, err := fetchWithRetry(context.Background(), client, "https://img.example/abc.jpg")
	if err != nil {
		t.Fatalf("fetchWithRetry: %v", err)
	}
	if client.attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", client.attempts)
	}
}

func TestMediaWorkerPool_RunRespectsConcurrencyBound(t *testing.T) {
	var inFlight int32
	var maxInFlight int32
	client := &blockingClient{
		onFetch: func() {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&maxInFlight)
				if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		},
	}
	media := newFakeMediaStore()
	pool := newMediaWorkerPool(client, targetMediaStore{pictures: media, videos: media}, 2, 1000, nil)

	var targets []mediaTarget
	for i := 0; i < 6; i++ {
		targets = append(targets, mediaTarget{URL: "https://img.example/x.jpg", CacheKey: "x", OnStored: func(ctx context.Context, path string) error { return nil }})
	}
	rep := &fakeReporter{}
	stored, failed := pool.run(context.Background(), targets, rep)
	if stored != 6 || failed != 0 {
		t.Fatalf("expected all 6 to succeed, stored=%d failed=%d", stored, failed)
	}
	if maxInFlight > 2 {
		t.Fatalf("expected concurrency bounded to 2, saw %d", maxInFlight)
	}
}

type blockingClient struct {
	remote.Client
	onFetch func()
}

func (c *blockingClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	c.onFetch()
	return []byte("ok"), nil
}
