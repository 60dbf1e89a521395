package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weiback-dev/weiback/internal/exporter"
	"github.com/weiback-dev/weiback/internal/query"
)

func init() {
	rootCmd.AddCommand(exportCmd)
}

var (
	exportUID        int64
	exportFavorited  bool
	exportTaskName   string
	exportDir        string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render archived posts to self-contained HTML bundles",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := query.Filter{IsFavorited: exportFavorited}
		if exportUID != 0 {
			f.UserID = &exportUID
		}
		id, err := theCore.ExportPosts(f, exporter.OutputConfig{TaskName: exportTaskName, ExportDir: exportDir})
		if err != nil {
			return err
		}
		fmt.Printf("started task %s\n", id)
		return nil
	},
}

func init() {
	exportCmd.Flags().Int64Var(&exportUID, "uid", 0, "only posts by this user id")
	exportCmd.Flags().BoolVar(&exportFavorited, "favorited", false, "only favorited posts")
	exportCmd.Flags().StringVar(&exportTaskName, "name", "export", "bundle directory name under export-dir")
	exportCmd.Flags().StringVar(&exportDir, "export-dir", "exports", "parent directory for the export bundle")
}
