package main

import (
	"log"

	"github.com/aussiebroadwan/billboard/internal/blog/app"
)

//go:generate swag init -g internal/blog/http/router.go -d ../../ -o ../../api/blog --outputTypes go --instanceName swagger

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
