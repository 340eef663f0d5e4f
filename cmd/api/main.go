package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/vadim/asset-qc/internal/app"
	"github.com/vadim/asset-qc/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (environment is used when empty)")
	flag.Parse()

	var cfg config.Config
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(*configPath); err != nil {
			log.Fatalf("failed to load config %s: %v", *configPath, err)
		}
	} else {
		cfg = config.MustLoad()
	}

	ctx := context.Background()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	// Blocks until SIGINT/SIGTERM
	if err := application.Run(ctx); err != nil {
		log.Printf("application error: %v", err)
		os.Exit(1)
	}
}
