// Package unfavorite drives the Unfavorite job: walk every post still
// recorded as favorited and ask the remote to unfavorite it, the same
// paced loop shape Ingestion uses for paging (spec.md §4.8).
package unfavorite

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/weiback-dev/weiback/internal/model"
	"github.com/weiback-dev/weiback/internal/remote"
)

// Store is the slice of *storage.Store the job needs.
type Store interface {
	ListFavoritedNotUnfavorited(ctx context.Context) ([]int64, error)
	MarkUnfavorited(ctx context.Context, id int64) error
}

// Reporter mirrors ingestion.Reporter; kept as its own interface so
// this package doesn't import ingestion for one type.
type Reporter interface {
	Progress(progress, total int)
	SubTaskError(e model.SubTaskError)
}

type Job struct {
	Store         Store
	Client        remote.Client
	Logger        *log.Logger
	InterRequest  time.Duration
}

func New(store Store, client remote.Client, interRequest time.Duration, logger *log.Logger) *Job {
	if logger == nil {
		logger = log.Default()
	}
	if interRequest <= 0 {
		interRequest = time.Second
	}
	return &Job{Store: store, Client: client, InterRequest: interRequest, Logger: logger}
}

// Result counts what happened across the run.
type Result struct {
	Unfavorited int
	Failed      int
}

// Run iterates every still-favorited post id and attempts to
// unfavorite it upstream. "Already not favorited" counts as success
// (spec.md §4.8's literal scenario 3); other failures become subtask
// errors and the job continues to the next id.
func (j *Job) Run(ctx context.Context, rep Reporter) (Result, error) {
	var result Result
	ids, err := j.Store.ListFavoritedNotUnfavorited(ctx)
	if err != nil {
		return result, fmt.Errorf("list favorited posts: %w", err)
	}

	for i, id := range ids {
		select {
		case <-ctx.Done():
			return result, nil
		default:
		}

		ack, err := j.Client.Unfavorite(ctx, id)
		if err != nil {
			result.Failed++
			rep.SubTaskError(model.SubTaskError{Kind: model.Unfavorite, Ref: fmt.Sprint(id), Message: err.Error()})
		} else if ack.OK || ack.AlreadyNotFavorited {
			if err := j.Store.MarkUnfavorited(ctx, id); err != nil {
				return result, fmt.Errorf("mark post %d unfavorited: %w", id, err)
			}
			result.Unfavorited++
		} else {
			result.Failed++
			rep.SubTaskError(model.SubTaskError{Kind: model.Unfavorite, Ref: fmt.Sprint(id), Message: "upstream rejected unfavorite"})
		}

		rep.Progress(i+1, len(ids))
		j.Logger.Printf("[Unfavorite] id=%d unfavorited=%d failed=%d", id, result.Unfavorited, result.Failed)

		if i < len(ids)-1 {
			if err := sleepCtx(ctx, j.InterRequest); err != nil {
				return result, nil
			}
		}
	}
	return result, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
