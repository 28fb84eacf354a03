package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/helprojects/internal/app"
	"github.com/blues/helprojects/internal/chat"
	"github.com/blues/helprojects/internal/config"
	"github.com/blues/helprojects/internal/database"
	"github.com/blues/helprojects/internal/event"
	"github.com/blues/helprojects/internal/logger"
	"github.com/blues/helprojects/internal/logic"
	"github.com/blues/helprojects/internal/mirror"
	"github.com/blues/helprojects/internal/remote"
	"github.com/blues/helprojects/internal/scheduler"
	"github.com/blues/helprojects/internal/server"
	"github.com/blues/helprojects/internal/storage"
	"github.com/blues/helprojects/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "helprojects",
		Short: "HelProjects crowdfunding demo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print platform statistics from local storage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printStats(cmd.Context())
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// 运行时依赖
type runtime struct {
	cfg     *config.Config
	store   storage.Store
	client  remote.Client
	mirror  mirror.Mirror
	auth    logic.Authenticator
	cleanup []func()
}

func (r *runtime) close() {
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		r.cleanup[i]()
	}
}

func setup() (*runtime, error) {
	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Setup(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	return newRuntime(cfg, database.Init)
}

// dialFunc 连接远程数据库
type dialFunc func(cfg config.DatabaseConfig) (*gorm.DB, error)

// newRuntime 打开本地存储；远程数据库不可用时只用本地存储继续运行
func newRuntime(cfg *config.Config, dial dialFunc) (*runtime, error) {
	rt := &runtime{cfg: cfg}
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	rt.store = store
	rt.cleanup = append(rt.cleanup, func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage: %v", err)
		}
	})

	if !cfg.Remote.Enabled {
		return rt, nil
	}

	// 远程镜像
	db, err := dial(cfg.Remote.Database)
	if err != nil {
		logger.Warn("Remote store unavailable, continuing with local storage only: %v", err)
		return rt, nil
	}
	tokens := remote.NewTokenIssuer(cfg.Remote.JWTSecret, time.Duration(cfg.Remote.TokenTTL)*time.Hour)
	client := remote.NewSQLClient(db, tokens)
	rt.client = client
	rt.cleanup = append(rt.cleanup, func() { _ = client.Close() })

	m, err := mirror.New(client, cfg.Remote.PoolSize)
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("failed to start remote mirror: %w", err)
	}
	rt.mirror = m
	rt.cleanup = append(rt.cleanup, m.Close)
	rt.auth = logic.NewRemoteAuthenticator(client)
	logger.Info("Remote mirror enabled: %s", cfg.Remote.Database.Host)
	return rt, nil
}

func serve(ctx context.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer rt.close()
	cfg := rt.cfg

	jobs, err := scheduler.NewManager()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	defer jobs.Stop()

	ctl := app.New(app.Options{
		Store:     rt.store,
		Mirror:    rt.mirror,
		Auth:      rt.auth,
		Events:    event.NewDispatcher(event.NewMetricsProcessor(), event.NewLogProcessor()),
		Timers:    jobs,
		Bot:       chat.NewBot(nil),
		Features:  view.Features{Gamification: cfg.Features.Gamification, Chat: cfg.Features.Chat},
		NoticeTTL: time.Duration(cfg.Scheduler.NoticeTTL) * time.Second,
	})
	defer ctl.Close()

	if err := ctl.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}

	// 定时任务
	if err := jobs.Register(scheduler.NewProjectStatusJob(ctl, time.Duration(cfg.Scheduler.StatusInterval)*time.Second)); err != nil {
		return err
	}
	if cfg.Scheduler.ActivityInterval > 0 {
		if err := jobs.Register(scheduler.NewActivityJob(ctl, time.Duration(cfg.Scheduler.ActivityInterval)*time.Second)); err != nil {
			return err
		}
	}
	jobs.Start()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.NewRouter(ctl),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error: %v", err)
		return err
	}
	return nil
}

func printStats(ctx context.Context) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.close()

	ctl := app.New(app.Options{Store: rt.store, Mirror: rt.mirror, Auth: rt.auth})
	defer ctl.Close()
	if err := ctl.Restore(ctx); err != nil {
		return err
	}

	stats, categories := ctl.Stats()
	fmt.Printf("Проектов: %d (активных %d, завершённых %d)\n", stats.TotalProjects, stats.ActiveProjects, stats.CompletedProjects)
	fmt.Printf("Собрано: %s, поддержавших: %d\n", view.Rubles(stats.TotalCollected), stats.TotalDonors)
	for _, c := range categories {
		fmt.Printf("  %-12s %3d  %s\n", c.Category, c.Count, view.Rubles(c.Collected))
	}
	return nil
}
