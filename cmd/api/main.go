package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	_ "go.uber.org/automaxprocs"

	"user-service/cmd/api/app"
	"user-service/cmd/api/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}

func run() error {
	// A missing .env is fine; deployments set the environment directly.
	_ = godotenv.Load()

	a, err := app.New(context.Background())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx, stop := server.WithSignal(context.Background(), a.Logger)
	defer stop()

	return a.Run(ctx)
}
