package ingestion

import (
	"testing"

	"github.com/weiback-dev/weiback/internal/model"
	"github.com/weiback-dev/weiback/internal/remote"
)

func TestNormalizePost_BasicFields(t *testing.T) {
	raw := remote.RawPost(`{
		"id": 100, "mblogid": "abc", "text": "hello", "created_at": 1700000000,
		"favorited": true,
		"user": {"id": 7, "screen_name": "alice", "avatar_large": "https://img.example/av7.jpg"},
		"pic_infos": {"abc": {"large": {"url": "https://img.example/abc.jpg"}}}
	}`)

	n, err := normalizePost(raw, model.Large)
	if err != nil {
		t.Fatalf("normalizePost: %v", err)
	}
	if n.Post.ID != 100 || n.Post.UID != 7 || n.Post.Text != "hello" {
		t.Fatalf("unexpected post: %+v", n.Post)
	}
	if n.Owner.ScreenName != "alice" {
		t.Fatalf("unexpected owner: %+v", n.Owner)
	}
	if len(n.Pictures) != 2 {
		t.Fatalf("expected avatar + post picture, got %d: %+v", len(n.Pictures), n.Pictures)
	}
}

func TestNormalizePost_MissingUserIsDecodeError(t *testing.T) {
	raw := remote.RawPost(`{"id": 100, "text": "hello"}`)
	_, err := normalizePost(raw, model.Large)
	if err == nil {
		t.Fatal("expected decode error for missing user")
	}
	var decodeErr *remote.DecodeError
	if !asDecodeError(err, &decodeErr) {
		t.Fatalf("expected *remote.DecodeError, got %T: %v", err, err)
	}
}

func TestNormalizePost_MalformedJSONIsDecodeError(t *testing.T) {
	_, err := normalizePost(remote.RawPost(`not json`), model.Large)
	if err == nil {
		t.Fatal("expected decode error for malformed json")
	}
}

func TestNormalizePost_RetweetOneLevelDeep(t *testing.T) {
	raw := remote.RawPost(`{
		"id": 101, "text": "rt", "created_at": 1700000001,
		"user": {"id": 7, "screen_name": "alice"},
		"retweeted_status": {
			"id": 50, "text": "original", "created_at": 1699999999,
			"user": {"id": 9, "screen_name": "bob"}
		}
	}`)
	n, err := normalizePost(raw, model.Large)
	if err != nil {
		t.Fatalf("normalizePost: %v", err)
	}
	if n.Post.RetweetedID == nil || *n.Post.RetweetedID != 50 {
		t.Fatalf("expected retweeted_id=50, got %v", n.Post.RetweetedID)
	}
	if n.Retweet == nil || n.Retweet.Post.ID != 50 || n.Retweet.Owner.ScreenName != "bob" {
		t.Fatalf("expected retweet parent decoded, got %+v", n.Retweet)
	}
}

func TestPresentVariants_OnlyListsTiersActuallySent(t *testing.T) {
	info := rawPicInfo{
		Thumbnail: &rawPicVariant{URL: "thumb.jpg"},
		Large:     &rawPicVariant{URL: "large.jpg"},
	}
	variants := presentVariants(info)
	if len(variants) != 2 {
		t.Fatalf("expected 2 present variants, got %d: %+v", len(variants), variants)
	}
	if variants[0].def != model.Thumbnail || variants[0].url != "thumb.jpg" {
		t.Fatalf("unexpected first variant: %+v", variants[0])
	}
	if variants[1].def != model.Large || variants[1].url != "large.jpg" {
		t.Fatalf("unexpected second variant: %+v", variants[1])
	}
}

func TestNormalizePost_MultipleVariantsProduceOnePictureRowEach(t *testing.T) {
	raw := remote.RawPost(`{
		"id": 100, "mblogid": "abc", "text": "hello", "created_at": 1700000000,
		"user": {"id": 7, "screen_name": "alice"},
		"pic_infos": {"xyz": {
			"thumbnail": {"url": "https://img.example/xyz_thumb.jpg"},
			"large": {"url": "https://img.example/xyz_large.jpg"},
			"largest": {"url": "https://img.example/xyz_largest.jpg"}
		}}
	}`)

	n, err := normalizePost(raw, model.Large)
	if err != nil {
		t.Fatalf("normalizePost: %v", err)
	}
	if len(n.Pictures) != 3 {
		t.Fatalf("expected one Picture row per present variant, got %d: %+v", len(n.Pictures), n.Pictures)
	}
	for _, pic := range n.Pictures {
		if pic.PictureID != "xyz" {
			t.Fatalf("expected all variants to share picture_id xyz, got %+v", pic)
		}
	}
}

func asDecodeError(err error, target **remote.DecodeError) bool {
	de, ok := err.(*remote.DecodeError)
	if ok {
		*target = de
		return true
	}
	return false
}
