// file: cmd/root.go
// version: 2.0.0
// guid: c5186235-e2bb-4a95-9822-00fcb28987e3

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jdfalk/cliqbook/internal/app"
	"github.com/jdfalk/cliqbook/internal/config"
	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/jdfalk/cliqbook/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. CLIQBOOK_DATABASE_TYPE.
const envPrefix = "CLIQBOOK"

// cli carries the state shared by every subcommand of one root command.
type cli struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	config.SetDefaults(c.v)

	root := &cobra.Command{
		Use:   "cliqbook",
		Short: "eBook catalog and membership service",
		Long: `CliqBook serves an eBook catalog with free, standard and premium
titles, member accounts and bookmarks, and an admin console API.

Data lives in a key-value store (Pebble by default) and is seeded from
bundled fixtures on first start.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.cliqbook.yaml)")
	flags.String("db", "cliqbook.db", "path to database")
	flags.String("db-type", "pebble", "database type: pebble (default), sqlite, redis or memory")
	flags.Bool("enable-sqlite3-i-know-the-risks", false, "enable SQLite3 database (WARNING: cross-compilation issues, PebbleDB recommended)")
	flags.String("fixtures-dir", "", "directory holding books.json and categories.json")
	flags.String("fixtures-url", "", "base URL serving books.json and categories.json")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.Bool("log-pretty", false, "human readable console logs")

	_ = c.v.BindPFlag("database_path", flags.Lookup("db"))
	_ = c.v.BindPFlag("database_type", flags.Lookup("db-type"))
	_ = c.v.BindPFlag("enable_sqlite3_i_know_the_risks", flags.Lookup("enable-sqlite3-i-know-the-risks"))
	_ = c.v.BindPFlag("fixtures_dir", flags.Lookup("fixtures-dir"))
	_ = c.v.BindPFlag("fixtures_url", flags.Lookup("fixtures-url"))
	_ = c.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = c.v.BindPFlag("log_pretty", flags.Lookup("log-pretty"))

	root.AddCommand(
		c.serveCmd(),
		c.seedCmd(),
		c.booksCmd(),
		c.usersCmd(),
		c.exportCmd(),
		c.backupCmd(),
		c.configCmd(),
		c.diagnosticsCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (c *cli) initConfig() error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		c.v.AddConfigPath(home)
		c.v.SetConfigType("yaml")
		c.v.SetConfigName(".cliqbook")
	}

	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (c *cli) loadConfig() (config.Config, error) {
	return config.Load(c.v)
}

// logger writes to the command's stderr so stdout stays machine readable.
func (c *cli) logger(cmd *cobra.Command, cfg config.Config) zerolog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogPretty).
		With().Str("config", c.v.ConfigFileUsed()).Logger()
}

// openApp loads the config and opens the full application state.
func (c *cli) openApp(ctx context.Context, cmd *cobra.Command) (*app.State, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, cfg, c.logger(cmd, cfg))
}

// openStore opens the raw store without seeding or loading services.
func (c *cli) openStore(cmd *cobra.Command) (database.Store, config.Config, zerolog.Logger, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, cfg, zerolog.Nop(), err
	}
	log := c.logger(cmd, cfg)
	store, err := database.Open(cfg.StoreOptions())
	if err != nil {
		return nil, cfg, log, fmt.Errorf("open %s store: %w", cfg.DatabaseType, err)
	}
	return store, cfg, log, nil
}
