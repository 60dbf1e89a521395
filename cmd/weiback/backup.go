package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weiback-dev/weiback/internal/remote"
)

func init() {
	rootCmd.AddCommand(backupFavoritesCmd, backupUserCmd, rebackupPostCmd, unfavoriteCmd)
}

var backupPages int

var backupFavoritesCmd = &cobra.Command{
	Use:   "backup-favorites",
	Short: "Back up the favorites feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := theCore.BackupFavorites(backupPages)
		if err != nil {
			return err
		}
		fmt.Printf("started task %s\n", id)
		return nil
	},
}

var backupUserUID int64
var backupUserFilter string

var backupUserCmd = &cobra.Command{
	Use:   "backup-user",
	Short: "Back up one user's timeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := theCore.BackupUser(backupUserUID, backupPages, parseTimelineFilter(backupUserFilter))
		if err != nil {
			return err
		}
		fmt.Printf("started task %s\n", id)
		return nil
	},
}

var rebackupPostID int64

var rebackupPostCmd = &cobra.Command{
	Use:   "rebackup-post",
	Short: "Re-fetch and re-store one post",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := theCore.RebackupPost(rebackupPostID)
		if err != nil {
			return err
		}
		fmt.Printf("started task %s\n", id)
		return nil
	},
}

var unfavoriteCmd = &cobra.Command{
	Use:   "unfavorite",
	Short: "Unfavorite every locally-backed-up post still marked favorited",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := theCore.UnfavoritePosts()
		if err != nil {
			return err
		}
		fmt.Printf("started task %s\n", id)
		return nil
	},
}

func init() {
	backupFavoritesCmd.Flags().IntVar(&backupPages, "pages", 1, "number of pages to fetch")
	backupUserCmd.Flags().Int64Var(&backupUserUID, "uid", 0, "user id to back up")
	backupUserCmd.Flags().IntVar(&backupPages, "pages", 1, "number of pages to fetch")
	backupUserCmd.Flags().StringVar(&backupUserFilter, "filter", "normal", "timeline filter: normal, original, picture, video, article")
	rebackupPostCmd.Flags().Int64Var(&rebackupPostID, "post", 0, "post id to re-fetch")
}

func parseTimelineFilter(s string) remote.TimelineFilter {
	switch s {
	case "original":
		return remote.FilterOriginalOnly
	case "picture":
		return remote.FilterPicture
	case "video":
		return remote.FilterVideo
	case "article":
		return remote.FilterArticle
	default:
		return remote.FilterAll
	}
}
