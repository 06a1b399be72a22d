// BookRook backend: upload a chess book, provision a remote knowledge base
// and assistant over it, then chat turn by turn with cited answers.
package main

import (
	"context"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bookrook/bookrook-backend/internal/chat"
	"github.com/bookrook/bookrook-backend/internal/config"
	"github.com/bookrook/bookrook-backend/internal/provider"
	"github.com/bookrook/bookrook-backend/internal/session"
	"github.com/bookrook/bookrook-backend/internal/store"
)

func main() {
	_ = godotenv.Load() // load .env if present

	log := zap.Must(zap.NewProduction())
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("config", zap.Error(err))
	}

	files, err := store.NewFileStore(cfg.UploadDir)
	if err != nil {
		log.Fatal("file store", zap.Error(err))
	}

	var svc provider.AssistantService
	if cfg.MockMode {
		log.Info("no remote service configured, using mock provider")
		svc = provider.MockService{}
	} else {
		svc = provider.NewOpenAIService(cfg.APIKey, cfg.Model)
	}

	driver := chat.NewDriver(svc, files, log, cfg.RunTimeout)
	sessions := session.NewRegistry()
	sess := sessions.Default()

	// Startup provisioning chain: seed files -> knowledge base -> assistant.
	// Every step blocks on the previous one; any failure is fatal.
	if err := driver.Bootstrap(context.Background(), sess, cfg.SeedFiles); err != nil {
		log.Fatal("bootstrap", zap.Error(err))
	}
	store.SeedAssistantHello(sess.History, "Welcome to BookRook! Upload a chess book and ask away.")

	r := newRouter(&server{
		svc:      svc,
		files:    files,
		driver:   driver,
		sessions: sessions,
		log:      log,
	})

	log.Info("listening", zap.String("port", cfg.Port), zap.String("model", svc.Model()))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server", zap.Error(err))
	}
}
