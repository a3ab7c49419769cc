package main

import (
	"os"

	"github.com/imrysn/kmtifmsv2-sub000/internal/pkg/logger"
	"github.com/imrysn/kmtifmsv2-sub000/internal/server"
)

// @title KMTI File Management API
// @version 2.0
// @description Multi-stage file submission and approval backend with team leader and admin review.

// @contact.name API Support
// @contact.email support@kmtifms.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until a shutdown signal arrives
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
	os.Exit(0)
}
