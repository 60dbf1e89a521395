package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weiback-dev/weiback/internal/cleanup"
)

func init() {
	rootCmd.AddCommand(cleanupPicturesCmd, cleanupAvatarsCmd)
}

var (
	cleanupPictureIDs []string
	cleanupPolicyName string
)

var cleanupPicturesCmd = &cobra.Command{
	Use:   "cleanup-pictures",
	Short: "Deduplicate resolution variants of stored pictures",
	RunE: func(cmd *cobra.Command, args []string) error {
		policy := cleanup.Highest
		if cleanupPolicyName == "lowest" {
			policy = cleanup.Lowest
		}
		id, err := theCore.CleanupPictures(cleanupPictureIDs, policy)
		if err != nil {
			return err
		}
		fmt.Printf("started task %s\n", id)
		return nil
	},
}

var cleanupAvatarsCmd = &cobra.Command{
	Use:   "cleanup-avatars",
	Short: "Remove stale avatar variants that no longer match the live avatar",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := theCore.CleanupInvalidAvatars()
		if err != nil {
			return err
		}
		fmt.Printf("started task %s\n", id)
		return nil
	},
}

func init() {
	cleanupPicturesCmd.Flags().StringSliceVar(&cleanupPictureIDs, "picture-ids", nil, "picture ids to deduplicate")
	cleanupPicturesCmd.Flags().StringVar(&cleanupPolicyName, "policy", "highest", "which variant to keep: highest or lowest")
}
