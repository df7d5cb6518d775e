package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	tradingconfig "nsplit-trader/internal/trading/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var configPath string

// openMigrator builds a migrator against the trading database from the
// same config file the services read.
func openMigrator() *migrate.Migrate {
	cfg, err := tradingconfig.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.SSLMode)

	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		log.Fatalf("open migrator: %v", err)
	}
	return m
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("close migration source: %v", srcErr)
	}
	if dbErr != nil {
		log.Printf("close migration database: %v", dbErr)
	}
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending database migrations",
	Run: func(cmd *cobra.Command, args []string) {
		m := openMigrator()
		defer closeMigrator(m)

		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("Database schema is already up to date.")
				return
			}
			log.Fatalf("apply migrations: %v", err)
		}
		fmt.Println("Applied migrations successfully.")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert the most recent database migration",
	Run: func(cmd *cobra.Command, args []string) {
		m := openMigrator()
		defer closeMigrator(m)

		if err := m.Steps(-1); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Println("No migration to revert.")
				return
			}
			log.Fatalf("revert migration: %v", err)
		}
		fmt.Println("Reverted last migration successfully.")
	},
}

func main() {
	rootCmd := &cobra.Command{Use: "migrate"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-trading.yaml", "Path to the configuration file")

	rootCmd.AddCommand(upCmd, downCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
