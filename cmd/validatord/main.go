package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/danielbnavia/navia-doc-validator/internal/api"
	"github.com/danielbnavia/navia-doc-validator/internal/config"
	"github.com/danielbnavia/navia-doc-validator/internal/flags"
	"github.com/danielbnavia/navia-doc-validator/internal/service/validator"
	"github.com/danielbnavia/navia-doc-validator/internal/storage"
)

func main() {
	// .env is optional; the environment wins either way
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("DOCVALIDATOR_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Anthropic.APIKey == "" {
		// not fatal: the relay answers each request with a structured 500
		// until the credential appears in config
		log.Printf("warning: ANTHROPIC_API_KEY not configured, validation requests will fail")
	}

	var history api.HistoryStore
	if cfg.Database.Type != "" {
		db, err := storage.Open(cfg.Database)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		defer db.Close()
		if err := storage.Migrate(db, cfg.Database.Type); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
		history = storage.NewHistoryStore(db)
		log.Printf("history store enabled type=%s", cfg.Database.Type)
	} else {
		log.Printf("history store disabled")
	}

	flagEval := flags.NewEvaluator(cfg.Flags)
	if flagEval.Enabled() {
		log.Printf("feature flags enabled addr=%s", cfg.Flags.RedisAddr)
	}

	docValidator := validator.NewService(cfg.Anthropic)
	handlers := api.NewHandler(docValidator, flagEval, history, cfg.History.Limit)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	if err := router.Run(cfg.Server.Address); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
