package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notice-board/internal/auth"
	"github.com/iliyamo/notice-board/internal/config"
	"github.com/iliyamo/notice-board/internal/database"
	"github.com/iliyamo/notice-board/internal/handler"
	"github.com/iliyamo/notice-board/internal/queue"
	"github.com/iliyamo/notice-board/internal/repository"
	"github.com/iliyamo/notice-board/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database: %v", err)
	}

	users := repository.NewUserRepo(db)
	notices := repository.NewNoticeRepo(db)
	tokens := repository.NewTokenRepo(db)

	// Demo accounts make a fresh install usable immediately; a seeding
	// failure is not fatal because the fallback table covers demo logins.
	if err := users.SeedDemoUsers(ctx, cfg.BcryptCost); err != nil {
		log.Printf("seed: demo users not loaded: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis: unavailable, stats cache and login rate limit disabled")
	}

	verifier := auth.NewVerifier(users, cfg.AllowFallback)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Auth:           handler.NewAuthHandler(cfg, verifier, users, tokens),
		Notices:        handler.NewNoticeHandler(notices),
		Dashboard:      handler.NewDashboardHandler(notices, rdb, cfg.StatsCacheTTL),
		JWTSecret:      cfg.JWTSecret,
		Redis:          rdb,
		LoginRateLimit: cfg.LoginRateLimit,
		LoginRateWin:   cfg.LoginRateWin,
	})

	go func() {
		if err := queue.StartNoticeConsumer(); err != nil {
			log.Printf("notice-consumer: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
