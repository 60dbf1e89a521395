// Package ingestion drives paginated remote fetches into Storage:
// one Engine, parameterized by job Kind, replaces the teacher's
// per-network Provider fleet (socialimport.Runner/Provider) since
// WeiBack has exactly one upstream and three job shapes rather than
// many social networks sharing one sync loop.
package ingestion

import "github.com/weiback-dev/weiback/internal/remote"

type Kind string

const (
	BackupUser      Kind = "backup_user"
	BackupFavorites Kind = "backup_favorites"
	RebackupPost    Kind = "rebackup_post"
)

// JobDescriptor is the parameter set one ingestion run is dispatched
// with. Only the fields relevant to Kind are read.
type JobDescriptor struct {
	Kind     Kind
	UID      int64
	NumPages int
	Filter   remote.TimelineFilter
	PostID   int64
}

// Result is the per-run accounting Engine.Run returns, mirroring the
// teacher's ProviderRunResult (fetched/upserted counters surfaced for
// logging and tests, not for the caller's control flow).
type Result struct {
	PagesFetched int
	PostsFetched int
	PostsStored  int
	MediaQueued  int
	MediaStored  int
	MediaFailed  int
}
