package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/weiback-dev/weiback/internal/query"
)

func init() {
	rootCmd.AddCommand(queryCmd, deletePostCmd, whoAmICmd, searchUserCmd, getPictureCmd)
}

var (
	queryUID         int64
	queryFavorited   bool
	querySearchTerm  string
	queryReverse     bool
	queryPage        int
	queryPostsPerPage int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query locally archived posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := query.Filter{IsFavorited: queryFavorited, SearchTerm: querySearchTerm, ReverseOrder: queryReverse}
		if queryUID != 0 {
			f.UserID = &queryUID
		}
		posts, total, err := theCore.QueryLocalPosts(cmd.Context(), f, query.Pagination{Page: queryPage, PostsPerPage: queryPostsPerPage})
		if err != nil {
			return err
		}
		fmt.Printf("%d posts (of %d total)\n", len(posts), total)
		for _, p := range posts {
			fmt.Printf("  %d  %s\n", p.ID, p.Text)
		}
		return nil
	},
}

var deletePostID int64

var deletePostCmd = &cobra.Command{
	Use:   "delete-post",
	Short: "Delete one archived post and its media rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		return theCore.DeletePost(cmd.Context(), deletePostID)
	},
}

var whoAmIUID int64

var whoAmICmd = &cobra.Command{
	Use:   "username",
	Short: "Resolve a locally known user id to its screen name",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := theCore.GetUsernameByID(cmd.Context(), whoAmIUID)
		if err != nil {
			return err
		}
		fmt.Println(name)
		return nil
	},
}

var searchUserPrefix string

var searchUserCmd = &cobra.Command{
	Use:   "search-user",
	Short: "Search locally known users by screen-name prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := theCore.SearchIDByUsernamePrefix(cmd.Context(), searchUserPrefix)
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%d  %s\n", u.ID, u.ScreenName)
		}
		return nil
	},
}

var (
	getPictureID  string
	getPictureOut string
)

var getPictureCmd = &cobra.Command{
	Use:   "get-picture",
	Short: "Write a locally archived picture's best available variant to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := theCore.GetPictureBlob(cmd.Context(), getPictureID)
		if err != nil {
			return err
		}
		return os.WriteFile(getPictureOut, b, 0o644)
	},
}

func init() {
	queryCmd.Flags().Int64Var(&queryUID, "uid", 0, "filter by author user id")
	queryCmd.Flags().BoolVar(&queryFavorited, "favorited", false, "only favorited posts")
	queryCmd.Flags().StringVar(&querySearchTerm, "search", "", "full-text search term")
	queryCmd.Flags().BoolVar(&queryReverse, "reverse", false, "oldest first")
	queryCmd.Flags().IntVar(&queryPage, "page", 1, "page number")
	queryCmd.Flags().IntVar(&queryPostsPerPage, "per-page", 20, "posts per page")

	deletePostCmd.Flags().Int64Var(&deletePostID, "post", 0, "post id to delete")
	whoAmICmd.Flags().Int64Var(&whoAmIUID, "uid", 0, "user id to resolve")
	searchUserCmd.Flags().StringVar(&searchUserPrefix, "prefix", "", "screen-name prefix")

	getPictureCmd.Flags().StringVar(&getPictureID, "picture-id", "", "logical picture id to fetch")
	getPictureCmd.Flags().StringVar(&getPictureOut, "out", "", "file path to write the picture bytes to")
}
