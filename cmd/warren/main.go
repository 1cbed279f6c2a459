package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"warren/internal/api"
	"warren/internal/config"
	"warren/internal/datastore"
	"warren/internal/registry"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatalf("warren failed: %v", err)
	}
}

func rootCmd() *cobra.Command {
	cfg := config.New()

	cmd := &cobra.Command{
		Use:   "warren",
		Short: "Warren VM metadata service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	cmd.Flags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	return cmd
}

func run(cfg *config.Config) error {
	db, err := cfg.InitializeDatabase()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	reg, err := registry.New(datastore.New(db))
	if err != nil {
		return fmt.Errorf("failed to load registries: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	api.NewAPI(reg).RegisterRoutes(r)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "warren is running"); err != nil {
			log.Printf("failed to write response: %v", err)
		}
	})

	log.Printf("warren listening on %s", cfg.Addr)
	return http.ListenAndServe(cfg.Addr, r)
}
