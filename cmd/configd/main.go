package main

import (
	"os"

	"github.com/DRSN-tech/miniapp-backend/internal/app"
	config "github.com/DRSN-tech/miniapp-backend/internal/cfg"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
)

func main() {
	log := logger.NewSlogLogger()

	cfg, err := config.LoadEndpoint(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	endpoint, err := app.NewEndpoint(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize config endpoint")
		os.Exit(1)
	}

	if err := endpoint.Run(); err != nil {
		os.Exit(1)
	}
}
