package cli

import (
	"github.com/spf13/cobra"

	"github.com/d60-Lab/pulse/config"
	"github.com/d60-Lab/pulse/pkg/database"
	"github.com/d60-Lab/pulse/pkg/logger"
)

// NewMigrateCommand applies the schema to the configured database.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Server.Mode); err != nil {
				return err
			}
			db, err := database.InitDB(cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Info("migration complete")
			return nil
		},
	}
}
