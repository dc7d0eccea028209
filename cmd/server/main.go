package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/amorlink/engage/internal/api"
	"github.com/amorlink/engage/internal/auth"
	"github.com/amorlink/engage/internal/bus"
	"github.com/amorlink/engage/internal/campaign"
	"github.com/amorlink/engage/internal/config"
	"github.com/amorlink/engage/internal/domain"
	"github.com/amorlink/engage/internal/guard"
	"github.com/amorlink/engage/internal/mailer"
	"github.com/amorlink/engage/internal/notify"
	"github.com/amorlink/engage/internal/pkg/distlock"
	"github.com/amorlink/engage/internal/pkg/logger"
	"github.com/amorlink/engage/internal/presence"
	"github.com/amorlink/engage/internal/repository/postgres"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatalf("ping postgres: %v", err)
	}
	cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	transport, err := mailer.NewSESTransport(context.Background(), cfg.SES)
	if err != nil {
		log.Fatalf("ses transport: %v", err)
	}

	// Repositories.
	users := postgres.NewUserRepo(db)
	outcomes := postgres.NewOutcomeRepo(db)
	notifications := postgres.NewNotificationRepo(db)
	matches := postgres.NewMatchRepo(db)
	prefs := postgres.NewPreferenceRepo(db)
	experiments := postgres.NewExperimentRepo(db)

	// Real-time pieces.
	presenceSvc := presence.NewService(rdb, cfg.Presence.OnlineThreshold())
	eventBus := bus.New(rdb)
	streamer := notify.NewStreamer(notifications, cfg.Stream.Interval())

	// Campaign pipeline.
	contactGuard := guard.NewService(outcomes, prefs, guardPolicy(cfg.Campaigns))
	runner := campaign.NewRunner(contactGuard, outcomes, transport,
		cfg.Campaigns.Workers, cfg.Campaigns.RunTimeout())

	renderer := campaign.NewRenderer()
	loc := cfg.Campaigns.Location()

	jobs := api.NewJobRegistry()
	for _, job := range []campaign.Job{
		campaign.NewBirthdayJob(users, renderer, loc),
		campaign.NewWinbackJob(users, renderer, cfg.Campaigns.WinbackDays),
		campaign.NewReengagementJob(users, renderer),
		campaign.NewDigestJob(users, renderer, cfg.Campaigns.DigestEventLookback),
		campaign.NewMilestoneJob(users, renderer),
	} {
		jobs.Register(job.Name(), api.MailJobFunc(runner, job))
	}
	for _, window := range cfg.Campaigns.SeasonalWindows {
		job := campaign.NewSeasonalJob(users, renderer, window, loc)
		jobs.Register(job.Name(), api.MailJobFunc(runner, job))
	}

	evaluator := campaign.NewEvaluator(experiments, func() distlock.DistLock {
		return distlock.NewLock(rdb, db, "abtest:evaluation", campaign.EvaluationLockTTL)
	})
	jobs.Register(evaluator.Name(), evaluator.Run)

	// HTTP surface.
	verifier := auth.NewRedisVerifier(rdb, "")
	handlers := api.NewHandlers(presenceSvc, matches, eventBus, streamer, jobs,
		verifier, cfg.Trigger.Secret)
	handlers.SetHealthChecker(api.NewHealthChecker(db, rdb))

	server := api.NewServer(cfg.Server, handlers)

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr(), "env", cfg.Server.Environment)
		if err := server.ListenAndServe(); err != nil {
			logger.Error("server stopped", "error", err)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-done

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// guardPolicy translates configured day counts into the guard's policy.
func guardPolicy(cfg config.CampaignsConfig) guard.Policy {
	cooldowns := make(map[domain.CampaignCategory]time.Duration, len(cfg.CooldownDays))
	for category, days := range cfg.CooldownDays {
		cooldowns[domain.CampaignCategory(category)] = time.Duration(days) * 24 * time.Hour
	}
	return guard.Policy{
		Cooldowns: cooldowns,
		Default:   14 * 24 * time.Hour,
		WeeklyCap: cfg.WeeklyCap,
	}
}
