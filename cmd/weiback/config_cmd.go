package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/weiback-dev/weiback/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or change the running configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := theCore.GetConfig()
		fmt.Printf("db_path             = %s\n", cfg.DBPath)
		fmt.Printf("picture_path        = %s\n", cfg.PicturePath)
		fmt.Printf("video_path          = %s\n", cfg.VideoPath)
		fmt.Printf("download_pictures   = %v\n", cfg.DownloadPictures)
		fmt.Printf("picture_definition  = %s\n", cfg.PictureDefStr)
		fmt.Printf("backup_task_interval= %d\n", cfg.BackupTaskInterval)
		fmt.Printf("other_task_interval = %d\n", cfg.OtherTaskInterval)
		fmt.Printf("posts_per_html      = %d\n", cfg.PostsPerHTML)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one configuration key and persist it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := theCore.GetConfig()
		key, value := args[0], args[1]

		switch key {
		case "posts_per_html":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("posts_per_html must be an integer: %w", err)
			}
			cfg.PostsPerHTML = n
		case "backup_task_interval":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("backup_task_interval must be an integer: %w", err)
			}
			cfg.BackupTaskInterval = n
		case "other_task_interval":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("other_task_interval must be an integer: %w", err)
			}
			cfg.OtherTaskInterval = n
		case "download_pictures":
			cfg.DownloadPictures = value == "true"
		default:
			return fmt.Errorf("unknown or read-only config key: %s", key)
		}

		theCore.SetConfig(cfg)
		if err := config.Save(configPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Printf("set %s = %s\n", key, value)
		return nil
	},
}
