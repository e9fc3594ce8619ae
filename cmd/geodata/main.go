package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/EmpoweredVote/geodata/internal/config"
	"github.com/EmpoweredVote/geodata/internal/db"
	"github.com/EmpoweredVote/geodata/internal/query"
	"github.com/EmpoweredVote/geodata/internal/schema"
	"github.com/EmpoweredVote/geodata/internal/search"
	"github.com/EmpoweredVote/geodata/internal/seeds"
	"github.com/EmpoweredVote/geodata/internal/server"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	envFile     string
	filtersPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "geodata",
		Short: "Geotechnical investigation database tools",
		Long: `geodata provisions the geotechnical schema, serves the search API and
runs one-off searches over penetration tests, cone tests and velocity profiles.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env.local", "Environment file to load before reading configuration")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create tables and seed soil type labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, gdb *gorm.DB) error {
				return schema.Provision(ctx, gdb)
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Provision the schema and load the demonstration dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, gdb *gorm.DB) error {
				if err := schema.Provision(ctx, gdb); err != nil {
					return err
				}
				return seeds.SeedDemo(ctx, gdb)
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the search API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			return server.Run(cmd.Context(), cfg)
		},
	})

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search reports and print them as JSON",
	}
	searchCmd.PersistentFlags().StringVarP(&filtersPath, "filters", "f", "", "YAML file of search filters (all fields optional)")

	searchCmd.AddCommand(&cobra.Command{
		Use:   "spt",
		Short: "Search standard penetration test boreholes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var c query.PenetrationTestCriteria
			if err := loadFilters(&c); err != nil {
				return err
			}
			return withDB(cmd.Context(), func(ctx context.Context, gdb *gorm.DB) error {
				reports, err := search.NewService(gdb, nil).SearchPenetrationTests(ctx, c)
				if err != nil {
					return err
				}
				return printJSON(reports)
			})
		},
	})

	searchCmd.AddCommand(&cobra.Command{
		Use:   "cpt",
		Short: "Search cone penetration tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			var c query.ConeTestCriteria
			if err := loadFilters(&c); err != nil {
				return err
			}
			return withDB(cmd.Context(), func(ctx context.Context, gdb *gorm.DB) error {
				reports, err := search.NewService(gdb, nil).SearchConeTests(ctx, c)
				if err != nil {
					return err
				}
				return printJSON(reports)
			})
		},
	})

	searchCmd.AddCommand(&cobra.Command{
		Use:   "vs",
		Short: "Search shear-wave velocity profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			var c query.VelocityProfileCriteria
			if err := loadFilters(&c); err != nil {
				return err
			}
			return withDB(cmd.Context(), func(ctx context.Context, gdb *gorm.DB) error {
				profiles, err := search.NewService(gdb, nil).SearchVelocityProfiles(ctx, c)
				if err != nil {
					return err
				}
				return printJSON(profiles)
			})
		},
	})

	rootCmd.AddCommand(searchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// withDB loads configuration, opens the database for the duration of fn and
// closes it afterwards.
func withDB(ctx context.Context, fn func(context.Context, *gorm.DB) error) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	gdb, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close(gdb)
	return fn(ctx, gdb)
}

func loadFilters(v any) error {
	if filtersPath == "" {
		return nil
	}
	return config.LoadFilters(filtersPath, v)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
