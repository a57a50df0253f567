package cmd

import (
	"fmt"

	"lookuply-search-api/internal/search"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func indexCMD() *cobra.Command {
	var file string
	var index = &cobra.Command{
		Use:   "index",
		Short: "Push documents from a JSON file to the search backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := search.LoadDocuments(file)
			if err != nil {
				return err
			}

			a, err := newApp(cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.backend.IndexDocuments(cmd.Context(), docs); err != nil {
				return fmt.Errorf("index documents: %w", err)
			}
			a.logger.Info("documents indexed", zap.Int("count", len(docs)))
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents\n", len(docs))
			return nil
		},
	}
	index.Flags().StringVarP(&file, "file", "f", "", "JSON array of documents with id, title, content and url")
	_ = index.MarkFlagRequired("file")

	return index
}
