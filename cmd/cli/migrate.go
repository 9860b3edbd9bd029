package cli

import (
	"context"

	"workdesk/internal/clock"
	"workdesk/internal/services"
	"workdesk/internal/store"

	"github.com/spf13/cobra"
)

var seedRules bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		db, err := openDatabase(cfg, logger)
		if err != nil {
			return err
		}
		logger.Info("Starting database migration...")
		if err := store.AutoMigrate(db); err != nil {
			return err
		}
		if err := store.CreateIndexes(db); err != nil {
			return err
		}
		logger.Info("Database migration completed")

		if seedRules {
			added, err := services.NewRuleService(store.NewRuleStore(db), clock.Real(), logger).SeedDefaults(context.Background())
			if err != nil {
				return err
			}
			logger.Infof("Seeded %d automation rules", added)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&seedRules, "seed", false, "insert the default automation rules")
	rootCmd.AddCommand(migrateCmd)
}
