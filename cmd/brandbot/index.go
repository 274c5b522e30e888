package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/filestore"
	"github.com/xxxsen/brandbot/internal/vectorindex"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "build or verify the vector index",
	}
	cmd.AddCommand(newIndexBuildCmd(), newIndexVerifyCmd())
	return cmd
}

func newIndexBuildCmd() *cobra.Command {
	var (
		configPath string
		noPush     bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "load sources, embed chunks and persist the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			logger := logutil.GetLogger(ctx)

			if len(cfg.RAG.Sources) == 0 {
				return fmt.Errorf("rag.sources is required to build an index")
			}
			chunks, stats, err := newLoader(cfg).LoadAndChunk(ctx, sourcesFromConfig(cfg))
			if stats != nil {
				if perr := printJSON(cmd.OutOrStdout(), stats); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}
			manager, err := newManager(cfg)
			if err != nil {
				return err
			}
			ix, err := vectorindex.Build(ctx, manager, chunks)
			if err != nil {
				return err
			}
			if err := vectorindex.Persist(ctx, ix, cfg.RAG.IndexDir, cfg.RAG.IndexName); err != nil {
				return err
			}
			rep, err := vectorindex.Verify(ctx, cfg.RAG.IndexDir, cfg.RAG.IndexName, len(chunks), cfg.RAG.VerifySampleSize)
			if err != nil {
				return fmt.Errorf("verify index: %w", err)
			}
			if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			if noPush {
				return nil
			}
			store, err := newRemoteStore(cfg)
			if err != nil || store == nil {
				return err
			}
			if err := filestore.Push(ctx, store, cfg.RemoteIndex.Prefix, cfg.RAG.IndexDir, vectorindex.ArtifactNames(cfg.RAG.IndexName)); err != nil {
				return fmt.Errorf("push index: %w", err)
			}
			logger.Info("index build finished", zap.Int("chunks", len(chunks)))
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().BoolVar(&noPush, "no-push", false, "skip uploading to the remote index store")
	return cmd
}

func newIndexVerifyCmd() *cobra.Command {
	var (
		configPath string
		expected   int
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "reload the persisted index and report its contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			rep, err := vectorindex.Verify(context.Background(), cfg.RAG.IndexDir, cfg.RAG.IndexName, expected, cfg.RAG.VerifySampleSize)
			if rep != nil {
				if perr := printJSON(cmd.OutOrStdout(), rep); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().IntVar(&expected, "expected", -1, "expected document count, negative to skip")
	return cmd
}
