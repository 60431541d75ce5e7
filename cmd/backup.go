// file: cmd/backup.go
// version: 1.0.0
// guid: c75b8053-53d4-4462-8ebc-05a46b7cf812

package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/jdfalk/cliqbook/internal/backup"
	"github.com/jdfalk/cliqbook/internal/config"
	"github.com/spf13/cobra"
)

func (c *cli) backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore store backups",
	}
	cmd.PersistentFlags().String("backup-dir", "backups", "directory holding backup archives")
	_ = c.v.BindPFlag("backup_dir", cmd.PersistentFlags().Lookup("backup-dir"))

	create := &cobra.Command{
		Use:   "create",
		Short: "Archive every key in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, log, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			bcfg := backup.DefaultBackupConfig()
			bcfg.BackupDir = cfg.BackupDir
			bcfg.MaxBackups = cfg.MaxBackups
			info, err := backup.CreateBackup(store, cfg.DatabaseType, bcfg, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%d keys, %d bytes)\n", info.Path, info.Keys, info.Size)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			backups, err := backup.ListBackups(cfg.BackupDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(out, "No backups in %s\n", cfg.BackupDir)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tTYPE\tSIZE\tCREATED")
			for _, b := range backups {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.Filename, b.DatabaseType, b.Size, b.CreatedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	var noVerify bool
	restore := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the store's contents with a backup",
		Long: `Write every key from the archive into the store and remove keys the
archive does not hold. A bare filename is looked up in --backup-dir.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, log, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := backup.RestoreBackup(resolveBackup(cfg.BackupDir, args[0]), store, !noVerify, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d keys\n", n)
			return nil
		},
	}
	restore.Flags().BoolVar(&noVerify, "no-verify", false, "skip checksum verification")

	remove := &cobra.Command{
		Use:   "delete <file>",
		Short: "Delete a backup archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			path := resolveBackup(cfg.BackupDir, args[0])
			if err := backup.DeleteBackup(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", path)
			return nil
		},
	}

	cmd.AddCommand(create, list, restore, remove)
	return cmd
}

// resolveBackup treats a bare filename as relative to dir.
func resolveBackup(dir, name string) string {
	if filepath.Base(name) == name {
		return filepath.Join(dir, name)
	}
	return name
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "write [path]",
		Short: "Write the effective configuration as YAML",
		Long: `Write the merged configuration (defaults, config file, environment and
flags) to path, or to $HOME/.cliqbook.yaml. Passwords are never written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			path := config.DefaultFilePath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	})
	return cmd
}
