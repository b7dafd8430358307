package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/backend"
	"github.com/tiago-cos/prosa-kobo/internal/config"
	"github.com/tiago-cos/prosa-kobo/internal/database"
	"github.com/tiago-cos/prosa-kobo/internal/database/annotations"
	"github.com/tiago-cos/prosa-kobo/internal/database/devices"
	"github.com/tiago-cos/prosa-kobo/internal/database/tokens"
	http_controllers "github.com/tiago-cos/prosa-kobo/internal/http"
	"github.com/tiago-cos/prosa-kobo/internal/scheduler"
	"github.com/tiago-cos/prosa-kobo/internal/session"
	syncsvc "github.com/tiago-cos/prosa-kobo/internal/sync"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting prosa-kobo v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	deviceRepo := devices.NewRepository(db.DB)
	tokenRepo := tokens.NewRepository(db.DB)
	tagRepo := annotations.NewRepository(db.DB)

	secret := cfg.Auth.Secret
	if secret == "" {
		secret, err = session.GenerateSecret()
		if err != nil {
			log.Fatalf("Failed to generate signing secret: %v", err)
		}
		log.Printf("Generated signing secret (set AUTH_SECRET to persist sessions across restarts)")
	}
	authority := session.NewAuthority([]byte(secret), cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)

	backendURL := fmt.Sprintf("%s://%s:%d", cfg.Backend.Scheme, cfg.Backend.Host, cfg.Backend.Port)
	backendClient := backend.NewClient(backendURL, cfg.Backend.Timeout)
	log.Printf("Content service at %s", backendURL)

	orchestrator := syncsvc.NewOrchestrator(backendClient, tokenRepo, tagRepo, syncsvc.Config{
		BookTokenTTL:  cfg.Tokens.BookTTL,
		CoverTokenTTL: cfg.Tokens.CoverTTL,
		TokenSize:     cfg.Tokens.Size,
	})

	var sweep *scheduler.TokenSweepScheduler
	if cfg.Sweep.Enabled {
		sweep = scheduler.NewTokenSweepScheduler(tokenRepo, cfg.Sweep.Schedule)
		if err := sweep.Start(); err != nil {
			log.Fatalf("Failed to start token sweep: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Database:     db,
		Devices:      deviceRepo,
		Tokens:       tokenRepo,
		Annotations:  tagRepo,
		Authority:    authority,
		Backend:      backendClient,
		Orchestrator: orchestrator,
		PublicURL:    cfg.HTTP.PublicURL,
		Version:      version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if sweep != nil {
			sweep.Stop(ctx)
		}
	}

	Serve(router, cfg, onShutdown)
}
