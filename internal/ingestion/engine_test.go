package ingestion

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/weiback-dev/weiback/internal/config"
	"github.com/weiback-dev/weiback/internal/model"
	"github.com/weiback-dev/weiback/internal/remote"
)

type fakeStore struct {
	mu            sync.Mutex
	users         map[int64]model.User
	posts         map[int64]model.Post
	favorited     map[int64]bool
	pictures      map[string]model.Picture
	picturePaths  map[string]string
	videos        map[string]model.Video
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[int64]model.User),
		posts:        make(map[int64]model.Post),
		favorited:    make(map[int64]bool),
		pictures:     make(map[string]model.Picture),
		picturePaths: make(map[string]string),
		videos:       make(map[string]model.Video),
	}
}

func (f *fakeStore) UpsertUser(ctx context.Context, u model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) UpsertPost(ctx context.Context, p model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[p.ID] = p
	return nil
}

func (f *fakeStore) MarkFavorited(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorited[id] = true
	return nil
}

func (f *fakeStore) InsertPictureIfAbsent(ctx context.Context, pic model.Picture) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pictures[pic.URL]; ok {
		return nil
	}
	f.pictures[pic.URL] = pic
	return nil
}

func (f *fakeStore) SetPicturePath(ctx context.Context, url, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pictures[url]; !ok {
		return fmt.Errorf("no such picture %s", url)
	}
	f.picturePaths[url] = path
	return nil
}

func (f *fakeStore) InsertVideoIfAbsent(ctx context.Context, v model.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[v.URL] = v
	return nil
}

func (f *fakeStore) SetVideoPath(ctx context.Context, url, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return nil
}

type fakeMediaStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{blobs: make(map[string][]byte)}
}

func (m *fakeMediaStore) StoreCached(cacheKey, rawURL string, b []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[rawURL] = b
	return "stored/" + cacheKey, nil
}

type fakeReporter struct {
	mu       sync.Mutex
	progress []int
	errs     []model.SubTaskError
}

func (r *fakeReporter) Progress(p, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, p)
}

func (r *fakeReporter) SubTaskError(e model.SubTaskError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, e)
}

func favoritesPostJSON(id, uid int64, retweetID int64) string {
	rt := ""
	if retweetID != 0 {
		rt = fmt.Sprintf(`, "retweeted_status": {"id": %d, "text": "rt", "created_at": 1, "user": {"id": %d, "screen_name": "owner"}}`, retweetID, uid)
	}
	pics := ""
	if id == 100 {
		pics = `, "pic_infos": {"abc": {"large": {"url": "https://img.example/abc.jpg"}}}`
	}
	return fmt.Sprintf(`{"id": %d, "text": "t%d", "created_at": 1700000000, "user": {"id": %d, "screen_name": "u%d"}%s%s}`, id, id, uid, uid, rt, pics)
}

func TestEngine_BackupFavorites_OnePageScenario(t *testing.T) {
	client := remote.NewFake()
	client.FavoritesPages[1] = remote.RawPostsPage{
		Posts: []remote.RawPost{
			remote.RawPost(favoritesPostJSON(100, 7, 0)),
			remote.RawPost(favoritesPostJSON(101, 7, 50)),
			remote.RawPost(favoritesPostJSON(102, 7, 0)),
		},
	}
	client.Blobs["https://img.example/abc.jpg"] = []byte("bytes")

	store := newFakeStore()
	media := newFakeMediaStore()
	rep := &fakeReporter{}

	// The fixture's only picture variant is "large", so that is the
	// configured tier to fetch.
	cfg := config.Default()
	cfg.PictureDefinition = model.Large
	eng := NewEngine(store, media, media, client, cfg, nil)
	result, err := eng.Run(context.Background(), JobDescriptor{Kind: BackupFavorites, NumPages: 1}, rep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.PostsStored != 3 {
		t.Fatalf("expected 3 posts stored, got %d", result.PostsStored)
	}
	for _, id := range []int64{100, 101, 102, 50} {
		if _, ok := store.posts[id]; !ok {
			t.Fatalf("expected post %d to be stored", id)
		}
	}
	if len(store.users) < 1 {
		t.Fatal("expected owner user to be stored")
	}
	for _, id := range []int64{100, 101, 102} {
		if !store.favorited[id] {
			t.Fatalf("expected post %d marked favorited", id)
		}
	}
	if store.favorited[50] {
		t.Fatal("retweet parent must not itself be marked favorited")
	}
	if _, ok := store.picturePaths["https://img.example/abc.jpg"]; !ok {
		t.Fatal("expected picture path to be set after download")
	}
}

func TestEngine_BackupFavorites_EmptyPageTerminatesCleanly(t *testing.T) {
	client := remote.NewFake()
	store := newFakeStore()
	media := newFakeMediaStore()
	rep := &fakeReporter{}

	eng := NewEngine(store, media, media, client, config.Default(), nil)
	result, err := eng.Run(context.Background(), JobDescriptor{Kind: BackupFavorites, NumPages: 3}, rep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PostsStored != 0 {
		t.Fatalf("expected no posts stored, got %d", result.PostsStored)
	}
}

func TestEngine_RebackupPost_UpsertsAndDownloadsMedia(t *testing.T) {
	client := remote.NewFake()
	client.Posts[100] = remote.RawPost(favoritesPostJSON(100, 7, 0))
	client.Blobs["https://img.example/abc.jpg"] = []byte("bytes")

	store := newFakeStore()
	media := newFakeMediaStore()
	rep := &fakeReporter{}

	eng := NewEngine(store, media, media, client, config.Default(), nil)
	result, err := eng.Run(context.Background(), JobDescriptor{Kind: RebackupPost, PostID: 100}, rep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PostsStored != 1 {
		t.Fatalf("expected 1 post stored, got %d", result.PostsStored)
	}
	if store.favorited[100] {
		t.Fatal("rebackup must not mark favorited")
	}
}

func TestEngine_DecodeErrorOnOnePostDoesNotAbortPage(t *testing.T) {
	client := remote.NewFake()
	client.FavoritesPages[1] = remote.RawPostsPage{
		Posts: []remote.RawPost{
			remote.RawPost(`not json`),
			remote.RawPost(favoritesPostJSON(101, 7, 0)),
		},
	}
	store := newFakeStore()
	media := newFakeMediaStore()
	rep := &fakeReporter{}

	eng := NewEngine(store, media, media, client, config.Default(), nil)
	result, err := eng.Run(context.Background(), JobDescriptor{Kind: BackupFavorites, NumPages: 1}, rep)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PostsStored != 1 {
		t.Fatalf("expected 1 post stored despite one bad record, got %d", result.PostsStored)
	}
	if len(rep.errs) != 1 {
		t.Fatalf("expected 1 subtask error, got %d", len(rep.errs))
	}
}
