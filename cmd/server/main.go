package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/dmarulanda/muninet/internal/config"
	"github.com/dmarulanda/muninet/internal/database"
	"github.com/dmarulanda/muninet/internal/events"
	"github.com/dmarulanda/muninet/internal/handlers"
	"github.com/dmarulanda/muninet/internal/hash"
	"github.com/dmarulanda/muninet/internal/httpserver"
	"github.com/dmarulanda/muninet/internal/logging"
	mw "github.com/dmarulanda/muninet/internal/middleware"
	"github.com/dmarulanda/muninet/internal/repository"
	"github.com/dmarulanda/muninet/internal/search"
	"github.com/dmarulanda/muninet/internal/service"
	"github.com/dmarulanda/muninet/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.AccessSecret, "ACCESS_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	if err := database.SeedRoles(db); err != nil {
		log.Fatalf("role seed error: %v", err)
	}

	var esClient *elasticsearch.Client
	if cfg.ESURL != "" {
		esClient, err = search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	producer := events.NewProducer(cfg.KafkaBrokers)

	codec := tokens.NewCodec(
		cfg.AccessSecret,
		cfg.RefreshSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
	)
	authSvc := &service.AuthService{
		Users:  &repository.UserRepository{DB: db},
		Roles:  &repository.RoleRepository{DB: db},
		Hasher: hash.New(cfg.BcryptCost),
		Codec:  codec,
	}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID())
	e.Use(mw.RequestLogger(logger))

	deps := httpserver.Deps{
		Codec:               codec,
		AuthHandler:         &handlers.AuthHandler{Auth: authSvc, Producer: producer},
		MunicipalityHandler: &handlers.MunicipalityHandler{Repo: &repository.MunicipalityRepository{DB: db}},
		RouterHandler:       &handlers.RouterHandler{Repo: &repository.RouterRepository{DB: db}},
		InvoiceHandler:      &handlers.InvoiceHandler{Repo: &repository.InvoiceRepository{DB: db}, ES: esClient, Producer: producer},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
