package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/orbitlabs/growth-engine/internal/api"
	"github.com/orbitlabs/growth-engine/internal/config"
	"github.com/orbitlabs/growth-engine/internal/domain"
	"github.com/orbitlabs/growth-engine/internal/growth"
	"github.com/orbitlabs/growth-engine/internal/orchestrator"
	"github.com/orbitlabs/growth-engine/internal/platform"
	"github.com/orbitlabs/growth-engine/internal/quota"
	"github.com/orbitlabs/growth-engine/internal/repository/memory"
	"github.com/orbitlabs/growth-engine/internal/repository/postgres"
	"github.com/orbitlabs/growth-engine/internal/safety"
	"github.com/orbitlabs/growth-engine/internal/scheduler"
	"github.com/orbitlabs/growth-engine/internal/service/campaign"
	"github.com/orbitlabs/growth-engine/internal/storage"
	"github.com/orbitlabs/growth-engine/internal/target"
	"github.com/orbitlabs/growth-engine/internal/templates"
)

func main() {
	log.Println("Starting Growth Engine server...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	mode, err := domain.ParseMode(cfg.Growth.Mode)
	if err != nil {
		log.Fatalf("Invalid growth mode: %v", err)
	}
	platforms := make([]domain.Platform, 0, len(cfg.Growth.Platforms))
	for _, raw := range cfg.Growth.Platforms {
		p, err := domain.ParsePlatform(raw)
		if err != nil {
			log.Fatalf("Invalid platform: %v", err)
		}
		platforms = append(platforms, p)
	}

	var qm quota.Manager
	switch cfg.Quota.Backend {
	case "redis":
		rqm, err := quota.NewRedisManagerFromURL(cfg.Redis.URL, cfg.Quota.Overrides)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		qm = rqm
	default:
		qm = quota.NewMemoryManager(cfg.Quota.Overrides)
	}

	var repo campaign.Repository
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to ping database: %v", err)
		}
		cancel()
		log.Println("Connected to database")
		repo = postgres.NewCampaignRepo(db)
	} else {
		log.Println("No DATABASE_URL set, using in-memory campaign store")
		repo = memory.NewCampaignRepo()
	}

	monitor := safety.NewMonitor(platforms)
	ledger := growth.NewLedger()
	tmpl := templates.NewStore()
	registry := platform.NewSimRegistry(platforms, time.Now().UnixNano())
	discovery := target.NewSimulatedDiscovery(time.Now().UnixNano())

	svc := campaign.NewService(repo, qm, target.NewScorer(), discovery,
		registry, tmpl, monitor, mode, cfg.Growth.JitterEnabled)
	orch := orchestrator.New(svc, ledger, monitor, platforms, cfg.Growth.FollowBackRate)
	store := storage.New(cfg.Storage.DataDir)
	sched := scheduler.New(ledger, tmpl, svc, store)

	if cfg.Scheduler.Enabled {
		if err := sched.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	server := api.NewServer(api.NewHandlers(svc, ledger, orch, sched))
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on http://%s", addr)
		errCh <- server.ListenAndServe(addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	case sig := <-stop:
		log.Printf("Received %v, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
