package main

import (
	"context"
	"log"

	"crmqc/internal/config"
	"crmqc/internal/container"
	"crmqc/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(context.Background(), appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if ref := appContainer.Reference; ref.Len() > 0 {
		log.Printf("Using reference material %s (%d elements)", ref.Name(), ref.Len())
	} else {
		log.Printf("No reference file configured, using the reference row of each upload")
	}
	log.Printf("Fill sampler seed: %d", appContainer.Sampler.Seed())

	server := ui.NewServer(appContainer.Controller, ui.Options{
		Defaults: appConfig.Defaults,
		Excel:    appContainer.ExcelConfig(),
		Logger:   appContainer.Logger,
	})
	if err := server.Start(":" + appConfig.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
