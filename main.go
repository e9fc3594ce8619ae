package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/EmpoweredVote/geodata/internal/config"
	"github.com/EmpoweredVote/geodata/internal/server"
)

func main() {
	cfg, err := config.Load(".env.local")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}
