package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"casicasi/config"
	"casicasi/handlers"
	"casicasi/middleware"
	"casicasi/models"
	"casicasi/routes"
	"casicasi/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Question bank: from the database when configured, otherwise from
	// the JSON file next to the server.
	var adminService *services.AdminService
	var authService *services.AuthService
	var adminHandler *handlers.AdminHandler
	bank := services.NewQuestionBank(nil, nil)

	if cfg.DatabaseDSN != "" {
		db, err := config.InitDB(cfg)
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(&models.QuestionRecord{}, &models.AdminUser{}); err != nil {
			return err
		}

		adminService = services.NewAdminService(db)
		authService = services.NewAuthService(db, cfg.JWTSecret)
		if err := authService.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return err
		}

		// Seed an empty table from the questions file so a fresh
		// database starts with a playable bank.
		if fileQuestions, err := services.LoadQuestionsFile(cfg.QuestionsPath); err == nil {
			if err := adminService.Seed(fileQuestions); err != nil {
				return err
			}
		}

		reload := func() error {
			questions, err := adminService.ActiveQuestions()
			if err != nil {
				return err
			}
			bank.Replace(questions)
			log.Printf("Question bank reloaded: %d active questions", len(questions))
			return nil
		}
		if err := reload(); err != nil {
			return err
		}
		adminHandler = handlers.NewAdminHandler(adminService, authService, reload)
	} else {
		questions, err := services.LoadQuestionsFile(cfg.QuestionsPath)
		if err != nil {
			return err
		}
		bank.Replace(questions)
	}
	log.Printf("Loaded %d questions", bank.Len())

	// Room snapshot store: Redis when configured, flat file otherwise.
	var store services.SnapshotStore
	if cfg.RedisAddr != "" {
		store = services.NewRedisStore(config.InitRedis(cfg))
		log.Printf("Using Redis room snapshots at %s", cfg.RedisAddr)
	} else {
		store = services.NewFileStore(cfg.SnapshotPath)
	}

	registry := services.NewRegistry(store)
	if recovered, err := registry.Restore(); err != nil {
		log.Printf("Could not restore room snapshot: %v", err)
	} else if recovered > 0 {
		log.Printf("Recovered %d rooms from snapshot", recovered)
	}

	gameService := services.NewGameService(registry, bank, cfg.TurnSeconds, cfg.GuessSeconds)
	hub := services.NewHub(registry, gameService, cfg.CleanupOnDisconnect)

	router := gin.Default()
	router.Use(middleware.CORS())
	routes.SetupRoutes(router, hub, handlers.NewRoomHandler(registry, cfg.PublicURL), adminHandler, authService)

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.BindAddress, cfg.Port),
		Handler: router,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return hub.Run(ctx)
	})
	group.Go(func() error {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
