package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/devlog-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/devlog-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/devlog-engine/internal/adapters/notify"
	"github.com/comitanigiacomo/devlog-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/devlog-engine/internal/config"
	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
	"github.com/comitanigiacomo/devlog-engine/internal/core/workers"
)

type repositories struct {
	users domain.UserRepository
	logs  domain.WorkLogRepository
	teams domain.TeamRepository
}

// @title           DevLog Engine API
// @version         1.0
// @description     Daily work logs, manager reviews and team productivity analytics.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var db *sqlx.DB
	var repos repositories

	switch cfg.Storage {
	case config.StorageMemory:
		log.Println("Using in-memory storage, data will not survive a restart.")
		repos = repositories{
			users: repository.NewInMemoryUserRepository(),
			logs:  repository.NewInMemoryWorkLogRepository(),
			teams: repository.NewInMemoryTeamRepository(),
		}
	default:
		log.Println("Connecting to database...")

		db, err = sqlx.Connect(cfg.Database.Driver, cfg.DatabaseDSN())
		if err != nil {
			log.Fatalf("Critical: Failed to connect to database: %v", err)
		}
		defer db.Close()

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := repository.Migrate(ctx, db); err != nil {
			log.Fatalf("Critical: %v", err)
		}
		log.Println("Database connected successfully.")

		repos = repositories{
			users: repository.NewPostgresUserRepository(db),
			logs:  repository.NewPostgresWorkLogRepository(db),
			teams: repository.NewPostgresTeamRepository(db),
		}
	}

	var rdb *redis.Client
	var statsCache services.StatsCache

	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("[CACHE] redis unavailable, continuing without cache and rate limiting: %v", err)
			rdb = nil
		} else {
			defer rdb.Close()
			repos.teams = repository.NewCachedTeamRepository(repos.teams, rdb)
			statsCache = cache.NewStatsCache(rdb, cache.DefaultStatsTTL)
		}
	}

	var notifier services.Notifier = notify.LogNotifier{}
	var wsHandler *adapterHTTP.WSHandler

	if cfg.Realtime {
		hub := notify.NewHub(cfg.Server.AllowedOrigins)
		go hub.Run(ctx)
		notifier = hub
		wsHandler = adapterHTTP.NewWSHandler(hub)
	}

	streakWorker := workers.NewStreakWorker(repos.users, repos.logs)
	streakWorker.Start(ctx)

	tokenService := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL, repos.users)

	authService := services.NewAuthService(repos.users, tokenService)
	statsService := services.NewStatsService(repos.logs, repos.users, repos.teams, statsCache)
	logService := services.NewWorkLogService(repos.logs, repos.users, repos.teams, streakWorker, notifier).
		WithStatsInvalidator(statsService)
	teamService := services.NewTeamService(repos.teams, repos.users)
	userService := services.NewUserService(repos.users, repos.logs, repos.teams)

	renderer := notify.MarkdownRenderer{}

	scheduler, err := workers.NewScheduler(cfg.Jobs.ReminderCron, cfg.Jobs.WeeklySummaryCron, workers.SchedulerDeps{
		Users:    repos.users,
		Logs:     repos.logs,
		Teams:    repos.teams,
		Reports:  statsService,
		Notifier: notifier,
		Renderer: renderer,
		Streaks:  streakWorker,
	})
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}
	scheduler.Start()

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:    adapterHTTP.NewAuthHandler(authService),
		UserHandler:    adapterHTTP.NewUserHandler(userService),
		WorkLogHandler: adapterHTTP.NewWorkLogHandler(logService),
		TeamHandler:    adapterHTTP.NewTeamHandler(teamService),
		StatsHandler:   adapterHTTP.NewStatsHandler(statsService, renderer),
		WSHandler:      wsHandler,
		Tokens:         tokenService,
		DB:             db,
		Redis:          rdb,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		RateWindow:     time.Minute,
		StartTime:      startTime,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("DevLog Engine running on http://localhost:%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown error: %v", err)
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Println("[SCHEDULER] jobs still running at shutdown deadline")
	}

	cancel()

	log.Println("Server stopped gracefully.")
}
