package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/xsync/server/internal/catalog"
	"github.com/xsync/server/internal/controller"
	connInmemory "github.com/xsync/server/internal/repository/connection/inmemory"
	queueInmemory "github.com/xsync/server/internal/repository/queue/inmemory"
	"github.com/xsync/server/internal/service/chat"
	"github.com/xsync/server/internal/service/room"
	"github.com/xsync/server/pkg/ctxlogger"
	"github.com/xsync/server/pkg/redisclient"
)

type AppConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	LogLevel        string        `json:"log_level"`
	PublicDir       string        `json:"public_dir"`
	ChatHistorySize int           `json:"chat_history_size"`
	ChatTextLimit   int           `json:"chat_text_limit"`
	ChatSenderLimit int           `json:"chat_sender_limit"`
	MessageRate     float64       `json:"message_rate"`
	YouTubeAPIKeys  []string      `json:"-"`
	CatalogCacheTTL time.Duration `json:"catalog_cache_ttl"`
	RedisHost       string        `json:"redis_host"`
	RedisPort       int           `json:"redis_port"`
	RedisPassword   string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.ChatHistorySize < 1 {
		return fmt.Errorf("chat history size must be greater than 0")
	}
	if cfg.MessageRate <= 0 {
		return fmt.Errorf("message rate must be greater than 0")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: logLevel,
		}),
	}
	logger := slog.New(h)

	var catalogProvider catalog.Provider = catalog.NewClient(&catalog.Config{
		Keys: cfg.YouTubeAPIKeys,
	}, logger)

	// redis only caches catalog lookups; room and chat state is in-memory
	// and dies with the process
	if cfg.RedisHost != "" {
		rc, err := redisclient.New(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer rc.Close()

		catalogProvider = catalog.NewCache(catalogProvider, rc, cfg.CatalogCacheTTL, logger)
	}

	roomService := room.NewService(logger)
	chatService := chat.NewService(&chat.Config{
		HistorySize:     cfg.ChatHistorySize,
		MaxTextLength:   cfg.ChatTextLimit,
		MaxSenderLength: cfg.ChatSenderLimit,
	}, logger)
	queueRepo := queueInmemory.NewRepo()
	connRepo := connInmemory.NewRepo()

	ctrl := controller.NewController(&controller.Config{
		PublicDir:   cfg.PublicDir,
		MessageRate: cfg.MessageRate,
	}, roomService, chatService, queueRepo, connRepo, catalogProvider, logger)
	defer ctrl.Close()

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: ctrl.Mux(),
	}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, cancel := context.WithTimeout(serverCtx, 30*time.Second)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
