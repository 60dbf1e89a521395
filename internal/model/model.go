// Package model holds the plain data types persisted by Storage and
// passed between Ingestion, Query, Exporter and Cleanup. None of these
// types know how to read or write themselves; that's Storage's job.
package model

import "time"

// PictureDefinition is weibo's resolution tier for one picture variant,
// strictly ordered by increasing resolution.
type PictureDefinition int

const (
	Thumbnail PictureDefinition = iota
	Bmiddle
	Large
	Original
	Mw2000
	Largest
	RealOriginal
)

func (d PictureDefinition) String() string {
	switch d {
	case Thumbnail:
		return "thumbnail"
	case Bmiddle:
		return "bmiddle"
	case Large:
		return "large"
	case Original:
		return "original"
	case Mw2000:
		return "mw2000"
	case Largest:
		return "largest"
	case RealOriginal:
		return "real_original"
	default:
		return "unknown"
	}
}

// TimelineType filters a user timeline backup to a content subset.
type TimelineType int

const (
	TimelineNormal TimelineType = iota
	TimelineOriginalOnly
	TimelinePicture
	TimelineVideo
	TimelineArticle
)

// User is a weibo account, as embedded in posts or fetched standalone.
type User struct {
	ID              int64  `json:"id"`
	ScreenName      string `json:"screen_name"`
	AvatarLarge     string `json:"avatar_large"`
	ProfileImageURL string `json:"profile_image_url"`
	Domain          string `json:"domain"`
	Following       bool   `json:"following"`
	FollowMe        bool   `json:"follow_me"`
}

// Post is one microblog entry, possibly retweeting another.
type Post struct {
	ID              int64   `json:"id"`
	Mblogid         string  `json:"mblogid"`
	UID             int64   `json:"uid"`
	Text            string  `json:"text"`
	CreatedAt       int64   `json:"created_at"`
	Favorited       bool    `json:"favorited"`
	RetweetedID     *int64  `json:"retweeted_id,omitempty"`
	PicIDs          []string `json:"pic_ids,omitempty"`
	PicInfos        string  `json:"pic_infos,omitempty"`
	MixMediaInfo    string  `json:"mix_media_info,omitempty"`
	URLStruct       string  `json:"url_struct,omitempty"`
	RegionName      string  `json:"region_name,omitempty"`
	Source          string  `json:"source,omitempty"`
	AttitudesCount  int     `json:"attitudes_count"`
	CommentsCount   int     `json:"comments_count"`
	RepostsCount    int     `json:"reposts_count"`
	Deleted         bool    `json:"deleted"`
}

// FavoritedPost records every post ever seen in the favorites feed,
// independent of whether it has since been unfavorited upstream.
type FavoritedPost struct {
	ID          int64 `json:"id"`
	Unfavorited bool  `json:"unfavorited"`
}

// Picture is one resolution variant of a logical image, keyed by URL.
type Picture struct {
	URL        string            `json:"url"`
	PictureID  string            `json:"picture_id"`
	Definition PictureDefinition `json:"definition"`
	Path       *string           `json:"path,omitempty"`
	PostID     *int64            `json:"post_id,omitempty"`
	UserID     *int64            `json:"user_id,omitempty"`
}

// Video is a post's attached video, keyed by URL.
type Video struct {
	URL    string `json:"url"`
	Path   *string `json:"path,omitempty"`
	PostID int64  `json:"post_id"`
}

// SubTaskError is a non-fatal error scoped to one record or one file,
// buffered on the Task for later drain by the GUI adapter.
type SubTaskError struct {
	Kind    SubTaskErrorKind `json:"kind"`
	Ref     string           `json:"ref"`
	Message string           `json:"message"`
	At      time.Time        `json:"at"`
}

type SubTaskErrorKind string

const (
	DecodePost   SubTaskErrorKind = "decode_post"
	DownloadMedia SubTaskErrorKind = "download_media"
	CleanupFile   SubTaskErrorKind = "cleanup_file"
	Unfavorite    SubTaskErrorKind = "unfavorite"
)
