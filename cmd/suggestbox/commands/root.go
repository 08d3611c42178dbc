package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/suggestion-box/internal/config"
	"github.com/iliyamo/suggestion-box/internal/database"
	"github.com/iliyamo/suggestion-box/internal/queue"
	"github.com/iliyamo/suggestion-box/internal/repository"
	"github.com/iliyamo/suggestion-box/internal/service"
)

var (
	// Global flags
	dbPath     string
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "suggestbox",
	Short: "Administer a suggestion box store",
	Long: `suggestbox operates on the same store as the HTTP server, acting as the
admin identity. Configuration is read from the environment and an optional
.env file (see "suggestbox env"). JWT_SECRET is not needed here.

Commands:
  migrate            - Create the schema if it does not exist
  users list         - List registered users
  users grant ID     - Allow a user to post and read suggestions
  users revoke ID    - Take that permission away
  users delete ID    - Delete a user
  suggestions list   - Show every suggestion with its replies`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite file to use instead of DB_PATH")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// stores is what every data command needs, built from the environment.
type stores struct {
	cfg         config.Config
	db          *sql.DB
	access      *service.AccessService
	suggestions *service.SuggestionService
	admin       service.Actor
}

func (s *stores) Close() error { return s.db.Close() }

func openStores(ctx context.Context) (*stores, error) {
	cfg, err := config.LoadForCLI()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBDriver = database.DriverSQLite
		cfg.DBPath = dbPath
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// CLI changes are audited like HTTP ones; publishing is synchronous here
	// because the process exits right after.
	var events queue.Publisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewRabbitPublisher(cfg.RabbitURL)
	}

	users := repository.NewUserRepo(db)
	var replies *repository.ReplyRepo
	if cfg.RepliesEnabled {
		replies = repository.NewReplyRepo(db)
	}
	access := service.NewAccessService(cfg, users, repository.NewTokenRepo(db), events)
	return &stores{
		cfg:         cfg,
		db:          db,
		access:      access,
		suggestions: service.NewSuggestionService(users, repository.NewSuggestionRepo(db), replies, events),
		admin:       access.AdminActor(),
	}, nil
}
