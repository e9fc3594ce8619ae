// Package server wires configuration, storage and the HTTP surface together.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/EmpoweredVote/geodata/internal/api"
	"github.com/EmpoweredVote/geodata/internal/config"
	"github.com/EmpoweredVote/geodata/internal/db"
	"github.com/EmpoweredVote/geodata/internal/metrics"
	"github.com/EmpoweredVote/geodata/internal/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Run serves the search API until ctx is cancelled, then drains in-flight
// requests and closes the database.
func Run(ctx context.Context, cfg config.Config) error {
	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svc := search.NewService(gdb, metrics.New(reg))

	handler := api.SetupRoutes(svc, api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		Gatherer:       reg,
	})
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on port :%s...", cfg.Port)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Printf("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
