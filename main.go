package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"apflow/cmd"
	"apflow/internal/config"
	"apflow/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration; commands reload it once --config is parsed
	cfg, err := config.Load("")
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting apflow")

	cmd.Execute()

	log.Debug().Msg("apflow shutdown")
	os.Exit(0)
}
