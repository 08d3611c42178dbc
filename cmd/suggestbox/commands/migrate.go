package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/suggestion-box/cmd/suggestbox/output"
	"github.com/iliyamo/suggestion-box/internal/config"
	"github.com/iliyamo/suggestion-box/internal/database"
)

// migrateCmd creates the schema.  Opening the store already does this, so
// the command only reports where it happened.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStores(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		where := s.cfg.DBPath
		if s.cfg.DBDriver != database.DriverSQLite {
			where = fmt.Sprintf("%s@%s:%s/%s", s.cfg.DBUser, s.cfg.DBHost, s.cfg.DBPort, s.cfg.DBName)
		}
		output.Success(cmd.OutOrStdout(), "schema ready (%s %s)", s.cfg.DBDriver, where)
		return nil
	},
}

// envCmd lists the environment variables the server and CLI read.
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Describe the configuration environment variables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.Usage())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, envCmd)
}
