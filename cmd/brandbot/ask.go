package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xxxsen/brandbot/internal/service"
)

func newAskCmd() *cobra.Command {
	var (
		configPath string
		brandName  string
		userID     string
		userName   string
		k          int
	)
	cmd := &cobra.Command{
		Use:   "ask [query]",
		Short: "answer one query through retrieval, prompt building and generation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			chat, err := newChatService(ctx, cfg)
			if err != nil {
				return err
			}
			resp, err := chat.Chat(ctx, service.ChatRequest{
				UserID:   userID,
				Brand:    brandName,
				UserName: userName,
				Query:    joinArgs(args),
				K:        k,
			})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	cmd.Flags().StringVar(&brandName, "brand", "", "raw brand name")
	cmd.Flags().StringVar(&userID, "user", "cli", "user id the turn is recorded for")
	cmd.Flags().StringVar(&userName, "name", "", "user name used in the greeting")
	cmd.Flags().IntVar(&k, "k", 0, "number of context documents, 0 for the configured default")
	return cmd
}
