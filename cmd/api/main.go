package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jsa/api/internal/app"
	"jsa/api/internal/catalog"
	"jsa/api/internal/config"
	"jsa/api/internal/export"
	"jsa/api/internal/generate"
	"jsa/api/internal/layout"
	"jsa/api/internal/session"
	"jsa/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	seeds, err := catalog.LoadSeeds()
	if err != nil {
		log.Fatalf("seed catalog invalid: %v", err)
	}

	var templates catalog.Catalog
	var directory catalog.Directory
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()

		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		pg := catalog.NewPostgres(store.NewTemplateStore(db))
		if err := pg.Bootstrap(ctx, seeds); err != nil {
			log.Printf("WARNING: catalog bootstrap error (will retry on next restart): %v", err)
		}
		templates, directory = pg, pg
	} else {
		log.Printf("Using the bundled template catalog")
		static := catalog.NewStatic(seeds)
		templates, directory = static, static
	}

	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient := catalog.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
		indexed := catalog.NewIndexed(templates, meiliClient)
		go indexed.Reindex(ctx)
		templates = indexed
	}

	var sessions session.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for session storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		sessions = redisStore
	} else {
		log.Printf("Using process memory for session storage")
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	var generator generate.Generator
	if g := generate.NewOpenAI(generate.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Timeout: cfg.GenerateTimeout,
	}); g != nil {
		generator = g
	} else {
		log.Printf("OPENAI_API_KEY not set; generation will fall back to templates")
	}

	overflow, err := layout.ParseOverflow(cfg.StepOverflow)
	if err != nil {
		log.Fatalf("layout config invalid: %v", err)
	}
	limits := layout.Limits{MaxTools: cfg.MaxTools, MaxSteps: cfg.MaxSteps, Overflow: overflow}
	if err := limits.Validate(); err != nil {
		log.Fatalf("layout config invalid: %v", err)
	}
	chrome := export.NewChrome(cfg.ChromePath, cfg.ExportTimeout)
	if !chrome.Available() {
		log.Printf("WARNING: no Chrome binary found; PDF export is disabled")
	}
	exporter := export.NewService(chrome, layout.A4, limits)

	var artifacts export.ArtifactStore
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		minioStore, err := export.NewMinioArtifacts(export.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			Expiry:    cfg.MinioExpiry,
		})
		if err != nil {
			log.Fatalf("minio client failed: %v", err)
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			log.Printf("WARNING: export bucket unavailable, exports will not be stored: %v", err)
		} else {
			artifacts = minioStore
		}
	}

	service := app.New(cfg, app.Deps{
		Sessions:  sessions,
		Catalog:   templates,
		Directory: directory,
		Generator: generator,
		Exporter:  exporter,
		Artifacts: artifacts,
	})

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ExportTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("JSA API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
