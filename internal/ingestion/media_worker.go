package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/weiback-dev/weiback/internal/model"
	"github.com/weiback-dev/weiback/internal/remote"
)

// mediaTarget is one file to fetch and persist: a picture or video
// reference plus how to write its path back to Storage.
type mediaTarget struct {
	URL      string
	CacheKey string
	IsVideo  bool
	OnStored func(ctx context.Context, path string) error
}

// MediaStore is the minimal capability the worker pool needs from
// MediaRepository — kept narrow so ingestion doesn't depend on the
// cache's internals, only on "store bytes, get back a path".
type MediaStore interface {
	StoreCached(cacheKey, rawURL string, b []byte) (string, error)
}

// targetMediaStore selects the picture or video repository for one
// target — pictures and videos live under separate configured roots
// (spec.md §6) but share one worker pool.
type targetMediaStore struct {
	pictures MediaStore
	videos   MediaStore
}

func (s targetMediaStore) store(tgt mediaTarget, b []byte) (string, error) {
	if tgt.IsVideo {
		return s.videos.StoreCached(tgt.CacheKey, tgt.URL, b)
	}
	return s.pictures.StoreCached(tgt.CacheKey, tgt.URL, b)
}

// mediaWorkerPool fetches mediaTargets with bounded concurrency
// (golang.org/x/sync/semaphore, sized N_media) and paced requests
// (golang.org/x/time/rate), per spec.md §5. Grounded on the teacher's
// socialimport.Runner limiter construction, generalized from one
// limiter per social network to one limiter for the single upstream.
type mediaWorkerPool struct {
	client  remote.Client
	media   targetMediaStore
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	logger  *log.Logger
}

func newMediaWorkerPool(client remote.Client, media targetMediaStore, concurrency int, rps float64, logger *log.Logger) *mediaWorkerPool {
	if concurrency <= 0 {
		concurrency = 8
	}
	if rps <= 0 {
		rps = 4
	}
	if logger == nil {
		logger = log.Default()
	}
	return &mediaWorkerPool{
		client:  client,
		media:   media,
		sem:     semaphore.NewWeighted(int64(concurrency)),
		limiter: rate.NewLimiter(rate.Limit(rps), concurrency),
		logger:  logger,
	}
}

// run fetches every target concurrently (bounded by the pool's
// semaphore), reporting per-target failures to rep as subtask errors
// rather than aborting the batch.
func (p *mediaWorkerPool) run(ctx context.Context, targets []mediaTarget, rep Reporter) (stored, failed int) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, tgt := range targets {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failed++
			mu.Unlock()
			continue
		}
		wg.Add(1)
		go func(tgt mediaTarget) {
			defer p.sem.Release(1)
			defer wg.Done()

			if err := p.limiter.Wait(ctx); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}

			b, err := fetchWithRetry(ctx, p.client, tgt.URL)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				rep.SubTaskError(model.SubTaskError{Kind: model.DownloadMedia, Ref: tgt.URL, Message: err.Error()})
				return
			}

			path, err := p.media.store(tgt, b)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				rep.SubTaskError(model.SubTaskError{Kind: model.DownloadMedia, Ref: tgt.URL, Message: err.Error()})
				return
			}
			if err := tgt.OnStored(ctx, path); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				rep.SubTaskError(model.SubTaskError{Kind: model.DownloadMedia, Ref: tgt.URL, Message: err.Error()})
				return
			}
			mu.Lock()
			stored++
			mu.Unlock()
		}(tgt)
	}
	wg.Wait()
	return stored, failed
}

// FetchWithRetry exposes the same retry ladder media downloads use to
// other packages (the Exporter schedules downloads for media missing
// at export time) without duplicating the policy.
func FetchWithRetry(ctx context.Context, client remote.Client, url string) ([]byte, error) {
	return fetchWithRetry(ctx, client, url)
}

// fetchWithRetry implements spec.md §7's retry ladder: 2 retries at
// 250ms/1s for transient errors, up to 3 attempts total with a
// jittered 2-5s wait (or the upstream's Retry-After if longer) for
// 429s, and no retry at all for other 4xx. Shape mirrors the teacher's
// scheduled-post sweep backoff ladder (a plain []time.Duration walked
// with time.After).
func fetchWithRetry(ctx context.Context, client remote.Client, url string) ([]byte, error) {
	backoffs := []time.Duration{250 * time.Millisecond, 1 * time.Second}

	var lastErr error
	for attempt := 0; ; attempt++ {
		b, err := client.FetchBytes(ctx, url)
		if err == nil {
			return b, nil
		}
		lastErr = err

		var transient *remote.TransientError
		var limited *remote.RateLimitedError
		switch {
		case errors.As(err, &transient):
			if attempt >= len(backoffs) {
				return nil, lastErr
			}
			if err := sleep(ctx, backoffs[attempt]); err != nil {
				return nil, err
			}
		case errors.As(err, &limited):
			if attempt >= 2 {
				return nil, lastErr
			}
			wait := limited.RetryAfter
			jittered := time.Duration(2000+rand.Intn(3000)) * time.Millisecond
			if jittered > wait {
				wait = jittered
			}
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
