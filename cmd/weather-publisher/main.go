package main

import (
	"log"

	"github.com/k-shtanenko/weather-stream/internal/bootstrap"
)

func main() {
	app, err := bootstrap.NewPublisher()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}
