package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "brandbot",
		Short:         "multi-brand retrieval augmented chat backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newRunCmd(), newIndexCmd(), newAskCmd())

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}
