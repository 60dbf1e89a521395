package remote

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory remote.Client used by the other packages'
// tests. Pages are preloaded by the test; FetchBytes serves preloaded
// blobs keyed by URL.
type Fake struct {
	mu sync.Mutex

	FavoritesPages map[int]RawPostsPage
	TimelinePages  map[int64]map[int]RawPostsPage
	Posts          map[int64]RawPost
	Blobs          map[string][]byte

	UnfavoriteAlreadyNotFavorited map[int64]bool
	UnfavoriteErr                 map[int64]error
	FetchBytesErr                 map[string]error

	Calls []string
}

func NewFake() *Fake {
	return &Fake{
		FavoritesPages:                make(map[int]RawPostsPage),
		TimelinePages:                 make(map[int64]map[int]RawPostsPage),
		Posts:                         make(map[int64]RawPost),
		Blobs:                         make(map[string][]byte),
		UnfavoriteAlreadyNotFavorited: make(map[int64]bool),
		UnfavoriteErr:                 make(map[int64]error),
		FetchBytesErr:                 make(map[string]error),
	}
}

func (f *Fake) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
}

func (f *Fake) FetchFavoritesPage(ctx context.Context, page int) (RawPostsPage, error) {
	f.record(fmt.Sprintf("favorites:%d", page))
	return f.FavoritesPages[page], nil
}

func (f *Fake) FetchUserTimelinePage(ctx context.Context, uid int64, page int, filter TimelineFilter) (RawPostsPage, error) {
	f.record(fmt.Sprintf("timeline:%d:%d", uid, page))
	return f.TimelinePages[uid][page], nil
}

func (f *Fake) FetchPost(ctx context.Context, id int64) (RawPost, error) {
	f.record(fmt.Sprintf("post:%d", id))
	p, ok := f.Posts[id]
	if !ok {
		return nil, &PermanentError{Status: 404}
	}
	return p, nil
}

func (f *Fake) Unfavorite(ctx context.Context, id int64) (Ack, error) {
	f.record(fmt.Sprintf("unfavorite:%d", id))
	if err := f.UnfavoriteErr[id]; err != nil {
		return Ack{}, err
	}
	if f.UnfavoriteAlreadyNotFavorited[id] {
		return Ack{OK: true, AlreadyNotFavorited: true}, nil
	}
	return Ack{OK: true}, nil
}

func (f *Fake) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	f.record("bytes:" + url)
	if err := f.FetchBytesErr[url]; err != nil {
		return nil, err
	}
	b, ok := f.Blobs[url]
	if !ok {
		return nil, &PermanentError{Status: 404}
	}
	return b, nil
}

func (f *Fake) SearchUsers(ctx context.Context, prefix string) ([]UserHit, error) {
	f.record("search:" + prefix)
	return nil, nil
}

var _ Client = (*Fake)(nil)
