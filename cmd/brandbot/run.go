package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/config"
	"github.com/xxxsen/brandbot/internal/embedcache"
	"github.com/xxxsen/brandbot/internal/handler"
	"github.com/xxxsen/brandbot/internal/history"
	"github.com/xxxsen/brandbot/internal/job"
	"github.com/xxxsen/brandbot/internal/middleware"
	"github.com/xxxsen/brandbot/internal/retriever"
	"github.com/xxxsen/brandbot/internal/schedule"
	"github.com/xxxsen/brandbot/internal/service"
)

func newRunCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "serve the chat api",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to config file")
	return cmd
}

func newChatService(ctx context.Context, cfg *config.Config) (*service.ChatService, error) {
	manager, err := newManager(cfg)
	if err != nil {
		return nil, err
	}
	resolver, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}
	embedder := queryEmbedder(cfg, manager)
	r, err := loadRetriever(ctx, cfg, embedder)
	if err != nil {
		return nil, fmt.Errorf("load retriever: %w", err)
	}
	store := history.New(history.Config{
		MaxTurns: cfg.History.MaxTurns,
		MaxUsers: cfg.History.MaxUsers,
		TTL:      time.Duration(cfg.History.TTL) * time.Second,
	})
	var opts []service.Option
	if cached, ok := embedder.(embedcache.Embedder); ok {
		opts = append(opts, service.WithEmbedCache(cached))
	}
	return service.NewChatService(r, resolver, manager, store, opts...), nil
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := logutil.GetLogger(ctx)
	logger.Info("starting server",
		zap.Int("port", cfg.Server.Port),
		zap.String("index_dir", cfg.RAG.IndexDir),
		zap.String("index_name", cfg.RAG.IndexName),
	)

	chat, err := newChatService(ctx, cfg)
	if err != nil {
		return err
	}

	scheduler := schedule.NewCronScheduler()
	verifyJob := job.NewIndexVerifyJob(cfg.RAG.IndexDir, cfg.RAG.IndexName, cfg.RAG.VerifySampleSize, func() retriever.Stats {
		return chat.Stats().Index
	})
	if err := scheduler.AddJob(verifyJob, cfg.Schedule.VerifyCron); err != nil {
		return fmt.Errorf("schedule index verification: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Chat:          handler.NewChatHandler(chat),
		ChatRateLimit: time.Duration(cfg.Server.ChatRateLimitMs) * time.Millisecond,
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.Server.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logger.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	return nil
}
