package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"careerhub/internal/api"
	"careerhub/internal/convert"
	"careerhub/internal/storage"
)

// AppConfig 应用配置。
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
	// SeedFile 指向转换脚本产出的文档数组，集合为空时加载一次。
	SeedFile string `yaml:"seed_file"`
}

// httpServer 抽象 HTTP 服务器，便于测试优雅关闭逻辑。
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("load config", zap.Error(err))
		return
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "careerhub.db"
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		logger.Error("init store", zap.Error(err))
		return
	}
	defer store.Close()

	if err := seedCollection(context.Background(), logger, store, cfg.Database.SeedFile); err != nil {
		logger.Error("seed collection", zap.Error(err))
		return
	}

	handler := api.NewHandler(store, logger)

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("listening", zap.String("addr", addr))
	srv := &http.Server{Addr: addr, Handler: handler}
	if err := runServer(ctx, srv, 5*time.Second); err != nil {
		logger.Error("server error", zap.Error(err))
	}
}

// runServer 运行 HTTP 服务器直到出错或上下文取消，取消时在超时内
// 优雅关闭。
func runServer(ctx context.Context, srv httpServer, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}

// seedCollection 在集合为空时加载一次转换产出的文档数组。
func seedCollection(ctx context.Context, logger *zap.Logger, store *storage.Store, seedFile string) error {
	if seedFile == "" {
		return nil
	}
	total, err := store.CountJobs(ctx)
	if err != nil {
		return err
	}
	if total > 0 {
		logger.Info("collection already seeded", zap.Int64("documents", total))
		return nil
	}
	docs, err := convert.ReadDocuments(seedFile)
	if err != nil {
		return err
	}
	created, err := store.ImportJobs(ctx, docs)
	if err != nil {
		return err
	}
	logger.Info("collection seeded", zap.String("seed_file", seedFile), zap.Int("documents", created))
	return nil
}

func loadConfig() (AppConfig, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}
