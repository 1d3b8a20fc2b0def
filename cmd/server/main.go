// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/impostor/internal/auth"
	"github.com/jason-s-yu/impostor/internal/cache"
	"github.com/jason-s-yu/impostor/internal/config"
	"github.com/jason-s-yu/impostor/internal/database"
	"github.com/jason-s-yu/impostor/internal/handlers"
	"github.com/jason-s-yu/impostor/internal/middleware"
	"github.com/jason-s-yu/impostor/internal/room"
	"github.com/jason-s-yu/impostor/internal/words"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	printToken := flag.Bool("admin-token", false, "print a fresh admin token and exit")
	flag.Parse()

	logger := logrus.New()
	cfg := config.Load(logger)
	logger.SetLevel(cfg.Level())
	logger.SetFormatter(cfg.Formatter())
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	var issuer *auth.Issuer
	if cfg.AdminTokenSecret != "" {
		var err error
		issuer, err = auth.NewIssuer(cfg.AdminTokenSecret, cfg.AdminTokenTTL)
		if err != nil {
			logger.Fatalf("admin tokens: %v", err)
		}
	}

	if *printToken {
		if issuer == nil {
			logger.Fatal("ADMIN_TOKEN_SECRET is not set")
		}
		tok, err := issuer.CreateJWT("admin")
		if err != nil {
			logger.Fatalf("create token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []room.Option{
		room.WithLogger(logger),
		room.WithWords(words.LoadOrFallback(cfg.WordsFile, logger)),
	}

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warnf("redis unavailable, action history disabled: %v", err)
		} else {
			defer rdb.Close()
			opts = append(opts, room.WithRecorder(cache.NewActionQueue(rdb, cfg.HistoryQueue)))
			logger.Infof("recording actions to redis queue %s", cfg.HistoryQueue)
		}
	}

	var games handlers.GameLister
	if cfg.DatabaseURL != "" {
		store, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warnf("database unavailable, results will not be stored: %v", err)
		} else if err := store.EnsureSchema(ctx); err != nil {
			logger.Warnf("database schema: %v", err)
			store.Close()
		} else {
			defer store.Close()
			opts = append(opts, room.WithResultStore(store))
			games = store
		}
	}

	hub := handlers.NewHub(logger)
	svc := room.NewService(cfg.Game, hub, opts...)
	ws := handlers.NewWSHandler(svc, hub, logger, cfg.RateLimit, cfg.RateBurst)

	logged := middleware.LogMiddleware(logger)
	admin := func(h http.Handler) http.Handler { return logged(middleware.RequireAdmin(issuer, logger)(h)) }

	mux := http.NewServeMux()
	mux.Handle("/ws", logged(ws))
	mux.Handle("/healthz", handlers.HealthHandler())
	mux.Handle("/admin/rooms", admin(handlers.AdminRoomsHandler(svc)))
	mux.Handle("/admin/games", admin(handlers.AdminGamesHandler(games, logger)))

	go sweepLoop(ctx, svc, cfg.SweepInterval, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("shutting down")
		ws.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("http shutdown: %v", err)
		}
	}()

	logger.Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	<-done
}

// sweepLoop evicts idle and finished rooms until ctx is cancelled.
func sweepLoop(ctx context.Context, svc *room.Service, every time.Duration, logger logrus.FieldLogger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svc.SweepIdle(); n > 0 {
				logger.Infof("swept %d idle rooms", n)
			}
		}
	}
}
