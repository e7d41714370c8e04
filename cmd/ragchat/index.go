package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/internal/ingest"
	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
	"github.com/mohammad-safakhou/ragchat/provider"
)

func indexCMD() *cobra.Command {
	var cfgPath string
	var index = &cobra.Command{
		Use:   "index [url...]",
		Short: "Fetch pages, embed their content and upsert into the retrieval index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			llm, err := provider.NewProvider(cfg.LLM)
			if err != nil {
				return err
			}
			gateway, err := retrieval.NewGateway(cmd.Context(), cfg, llm)
			if err != nil {
				return err
			}
			target, ok := gateway.(retrieval.Upserter)
			if !ok {
				return fmt.Errorf("retrieval provider %q does not support indexing", cfg.Retrieval.Provider)
			}
			ing := ingest.New(llm, target)
			for _, pageURL := range args {
				n, err := ing.IngestURL(cmd.Context(), pageURL)
				if err != nil {
					return fmt.Errorf("indexing %s: %w", pageURL, err)
				}
				fmt.Printf("%s: %d chunks\n", pageURL, n)
			}
			return nil
		},
	}
	index.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return index
}
