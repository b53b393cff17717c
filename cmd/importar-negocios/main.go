package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vistoenmaps/vistoenmaps-api/internal/catalog"
	"github.com/vistoenmaps/vistoenmaps-api/internal/database"
	"github.com/vistoenmaps/vistoenmaps-api/internal/logger"
	"github.com/vistoenmaps/vistoenmaps-api/internal/models"
	"github.com/vistoenmaps/vistoenmaps-api/internal/repository"
	"github.com/vistoenmaps/vistoenmaps-api/internal/scoring"
	"github.com/vistoenmaps/vistoenmaps-api/internal/services"
	"github.com/vistoenmaps/vistoenmaps-api/pkg/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var input string
	var migrate bool

	cmd := &cobra.Command{
		Use:          "importar-negocios",
		Short:        "Import a negocios.json export into the business store",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			cfg := config.New()
			if !cfg.HasDatabase() {
				return fmt.Errorf("DATABASE_URL is not set")
			}

			log := logger.New(logger.Options{Level: cfg.LogLevel, Format: "console", Output: os.Stderr})

			records, err := readRecords(input)
			if err != nil {
				return err
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if migrate {
				if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
					return err
				}
			}

			cat, err := catalog.Default()
			if cfg.CatalogPath != "" {
				cat, err = catalog.Load(cfg.CatalogPath)
			}
			if err != nil {
				return err
			}

			svc := services.NewBusinessService(repository.NewRepositories(db.DB), scoring.NewEngine(cat), log)
			result, err := svc.Import(cmd.Context(), records)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d of %d businesses\n", result.Created, len(records))
			if len(result.Skipped) > 0 {
				fmt.Fprintf(out, "Skipped %d: %s\n", len(result.Skipped), strings.Join(result.Skipped, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "negocios.json", "Business export JSON file")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Run database migrations before importing")
	return cmd
}

func readRecords(path string) ([]models.ImportRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var records []models.ImportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}
