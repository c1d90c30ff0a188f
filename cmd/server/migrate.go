package main

import (
	"log"

	"github.com/adi-253/parley/backend/internal/config"
	"github.com/adi-253/parley/backend/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		s, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer s.Close()
		log.Printf("Schema is up to date in %s", cfg.DatabasePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
