package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/weiback-dev/weiback/internal/model"
	"github.com/weiback-dev/weiback/internal/remote"
)

// rawUser is the undecoded shape of an embedded user object. Every
// field besides id is optional; a missing field decodes to its zero
// value rather than aborting the record (spec.md §9 "duck-typed
// remote JSON").
type rawUser struct {
	ID              int64  `json:"id"`
	ScreenName      string `json:"screen_name"`
	AvatarLarge     string `json:"avatar_large"`
	ProfileImageURL string `json:"profile_image_url"`
	Domain          string `json:"domain"`
	Following       bool   `json:"following"`
	FollowMe        bool   `json:"follow_me"`
}

// rawPicInfo lists every resolution variant weibo reports for one
// picture id; only the url of each present tier is read.
type rawPicInfo struct {
	Thumbnail    *rawPicVariant `json:"thumbnail"`
	Bmiddle      *rawPicVariant `json:"bmiddle"`
	Large        *rawPicVariant `json:"large"`
	Original     *rawPicVariant `json:"original"`
	Mw2000       *rawPicVariant `json:"mw2000"`
	Largest      *rawPicVariant `json:"largest"`
	RealOriginal *rawPicVariant `json:"original_v2"`
}

type rawPicVariant struct {
	URL string `json:"url"`
}

type rawPost struct {
	ID             int64                 `json:"id"`
	Mblogid        string                `json:"mblogid"`
	Text           string                `json:"text"`
	CreatedAt      int64                 `json:"created_at"`
	Favorited      bool                  `json:"favorited"`
	User           *rawUser              `json:"user"`
	RetweetedStatus json.RawMessage      `json:"retweeted_status"`
	PicIDs         []string              `json:"pic_ids"`
	PicInfos       map[string]rawPicInfo `json:"pic_infos"`
	MixMediaInfo   json.RawMessage       `json:"mix_media_info"`
	URLStruct      json.RawMessage       `json:"url_struct"`
	RegionName     string                `json:"region_name"`
	Source         string                `json:"source"`
	AttitudesCount int                   `json:"attitudes_count"`
	CommentsCount  int                   `json:"comments_count"`
	RepostsCount   int                   `json:"reposts_count"`
	Deleted        bool                  `json:"deleted"`
	PageInfo       *rawPageInfo          `json:"page_info"`
}

type rawPageInfo struct {
	Type      string           `json:"type"`
	MediaInfo *rawPostMediaURL `json:"media_info"`
}

type rawPostMediaURL struct {
	StreamURL string `json:"stream_url"`
}

// normalized is one post's decode result: the post and owner user
// rows ready for upsert, the retweet parent if present (one level —
// spec.md §9 never recurses further, the remote already flattens),
// and the media references to schedule for download.
type normalized struct {
	Post     model.Post
	Owner    model.User
	Retweet  *normalized
	Pictures []model.Picture
	Videos   []model.Video
}

// normalizePost decodes one raw post into typed rows. A malformed
// record returns an error the caller turns into a subtask error and
// skips — it never aborts the page (spec.md §7).
func normalizePost(raw remote.RawPost, pictureDef model.PictureDefinition) (normalized, error) {
	var rp rawPost
	if err := json.Unmarshal(raw, &rp); err != nil {
		return normalized{}, &remote.DecodeError{Err: fmt.Errorf("decode post: %w", err)}
	}
	if rp.User == nil {
		return normalized{}, &remote.DecodeError{Err: fmt.Errorf("post %d missing owner user", rp.ID)}
	}

	n := normalized{
		Post: model.Post{
			ID:             rp.ID,
			Mblogid:        rp.Mblogid,
			UID:            rp.User.ID,
			Text:           rp.Text,
			CreatedAt:      rp.CreatedAt,
			Favorited:      rp.Favorited,
			PicIDs:         rp.PicIDs,
			MixMediaInfo:   string(rp.MixMediaInfo),
			URLStruct:      string(rp.URLStruct),
			RegionName:     rp.RegionName,
			Source:         rp.Source,
			AttitudesCount: rp.AttitudesCount,
			CommentsCount:  rp.CommentsCount,
			RepostsCount:   rp.RepostsCount,
			Deleted:        rp.Deleted,
		},
		Owner: model.User{
			ID:              rp.User.ID,
			ScreenName:      rp.User.ScreenName,
			AvatarLarge:     rp.User.AvatarLarge,
			ProfileImageURL: rp.User.ProfileImageURL,
			Domain:          rp.User.Domain,
			Following:       rp.User.Following,
			FollowMe:        rp.User.FollowMe,
		},
	}

	if len(rp.RetweetedStatus) > 0 && string(rp.RetweetedStatus) != "null" {
		child, err := normalizePost(remote.RawPost(rp.RetweetedStatus), pictureDef)
		if err != nil {
			return normalized{}, fmt.Errorf("post %d retweet: %w", rp.ID, err)
		}
		rid := child.Post.ID
		n.Post.RetweetedID = &rid
		n.Retweet = &child
	}

	if rp.User.AvatarLarge != "" {
		n.Pictures = append(n.Pictures, model.Picture{
			URL:        rp.User.AvatarLarge,
			PictureID:  "avatar_" + fmt.Sprint(rp.User.ID),
			Definition: model.Large,
			UserID:     &rp.User.ID,
		})
	}

	postID := rp.ID
	for picID, info := range rp.PicInfos {
		for _, variant := range presentVariants(info) {
			n.Pictures = append(n.Pictures, model.Picture{
				URL:        variant.url,
				PictureID:  picID,
				Definition: variant.def,
				PostID:     &postID,
			})
		}
	}

	if rp.PageInfo != nil && rp.PageInfo.Type == "video" && rp.PageInfo.MediaInfo != nil && rp.PageInfo.MediaInfo.StreamURL != "" {
		n.Videos = append(n.Videos, model.Video{
			URL:    rp.PageInfo.MediaInfo.StreamURL,
			PostID: postID,
		})
	}

	return n, nil
}

type picVariant struct {
	def model.PictureDefinition
	url string
}

// presentVariants enumerates every resolution tier weibo actually sent
// for one picture id, each becoming its own Picture row (data-model
// invariant: multiple Picture rows may share a picture_id). Order is
// lowest to highest definition, matching QueryResolutionVariants.
func presentVariants(info rawPicInfo) []picVariant {
	ordered := []struct {
		def model.PictureDefinition
		v   *rawPicVariant
	}{
		{model.Thumbnail, info.Thumbnail},
		{model.Bmiddle, info.Bmiddle},
		{model.Large, info.Large},
		{model.Original, info.Original},
		{model.Mw2000, info.Mw2000},
		{model.Largest, info.Largest},
		{model.RealOriginal, info.RealOriginal},
	}
	var out []picVariant
	for _, o := range ordered {
		if o.v != nil && o.v.URL != "" {
			out = append(out, picVariant{def: o.def, url: o.v.URL})
		}
	}
	return out
}
