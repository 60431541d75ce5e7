// file: cmd/serve.go
// version: 1.0.0
// guid: 06948ca1-2247-42b1-9d51-b5d1ea89463f

package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jdfalk/cliqbook/internal/config"
	"github.com/jdfalk/cliqbook/internal/server"
	"github.com/spf13/cobra"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `Start the HTTP API: catalog browsing, accounts, the reader and the admin console.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := c.openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					st.Log.Warn().Err(err).Msg("close failed")
				}
			}()

			scfg := serverConfig(st.Config)
			if d, err := cmd.Flags().GetDuration("read-timeout"); err == nil && d > 0 {
				scfg.ReadTimeout = d
			}
			if d, err := cmd.Flags().GetDuration("idle-timeout"); err == nil && d > 0 {
				scfg.IdleTimeout = d
			}
			if d, err := cmd.Flags().GetDuration("shutdown-timeout"); err == nil && d > 0 {
				scfg.ShutdownTimeout = d
			}

			srv := server.NewServer(server.Deps{
				Catalog: st.Catalog,
				Auth:    st.Auth,
				Hub:     st.Hub,
				Index:   st.Index,
				Log:     st.Log,
			}, scfg)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().String("host", "localhost", "host to bind the web server to")
	cmd.Flags().Int("port", 8080, "port to run the web server on")
	cmd.Flags().Duration("read-timeout", 15*time.Second, "read timeout (e.g. 15s, 1m)")
	cmd.Flags().Duration("idle-timeout", 60*time.Second, "idle timeout (e.g. 60s, 2m)")
	cmd.Flags().Duration("shutdown-timeout", 30*time.Second, "grace period for in-flight requests")
	cmd.Flags().Bool("watch-fixtures", false, "reload categories.json from --fixtures-dir when it changes")
	_ = c.v.BindPFlag("host", cmd.Flags().Lookup("host"))
	_ = c.v.BindPFlag("port", cmd.Flags().Lookup("port"))
	_ = c.v.BindPFlag("watch_fixtures", cmd.Flags().Lookup("watch-fixtures"))
	return cmd
}

// serverConfig maps the application config onto the HTTP server's.
func serverConfig(cfg config.Config) server.ServerConfig {
	scfg := server.GetDefaultServerConfig()
	scfg.Addr = cfg.Addr()
	scfg.LoginRatePerMinute = cfg.LoginRatePerMinute
	scfg.MaxUploadBytes = (cfg.MaxBookFileBytes + cfg.MaxCoverBytes) * 2
	scfg.MetricsUsername = cfg.MetricsUsername
	scfg.MetricsPassword = cfg.MetricsPassword
	scfg.SecureCookies = cfg.SecureCookies
	scfg.MaxConnections = cfg.MaxConnections
	return scfg
}
