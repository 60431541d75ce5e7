// file: cmd/diagnostics.go
// version: 2.0.0
// guid: 78131670-7692-4f6c-babc-88aeff273074

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/spf13/cobra"
)

func (c *cli) diagnosticsCmd() *cobra.Command {
	diag := &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging and cleanup helpers",
		Long:  "Diagnostic utilities for inspecting and repairing the CliqBook store.",
	}

	query := &cobra.Command{
		Use:   "query",
		Short: "Inspect stored keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			prefix, _ := cmd.Flags().GetString("prefix")
			if limit <= 0 {
				return errors.New("limit must be positive")
			}
			store, _, _, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			keys, err := store.Keys()
			if err != nil {
				return fmt.Errorf("list keys: %w", err)
			}
			sort.Strings(keys)

			out := cmd.OutOrStdout()
			count := 0
			for _, key := range keys {
				if !strings.HasPrefix(key, prefix) {
					continue
				}
				val, _, err := store.Get(key)
				if err != nil {
					return fmt.Errorf("read %s: %w", key, err)
				}
				fmt.Fprintf(out, "Key: %s\n", key)
				fmt.Fprintf(out, "Value length: %d bytes\n", len(val))
				fmt.Fprintf(out, "Value preview: %s\n", truncateString(string(val), 500))
				fmt.Fprintln(out, "---")
				count++
				if count >= limit {
					break
				}
			}
			if count == 0 {
				fmt.Fprintln(out, "No keys matched the requested prefix.")
			}
			return nil
		},
	}
	query.Flags().Int("limit", 10, "Number of keys to display")
	query.Flags().String("prefix", "", "Only show keys with this prefix")

	cleanup := &cobra.Command{
		Use:   "cleanup-invalid",
		Short: "Remove malformed book records",
		Long:  "Find books with no title, no author or an unknown access level and delete them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("yes")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			st, err := c.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			invalid := invalidBooks(st.Catalog.Books.List())
			if len(invalid) == 0 {
				fmt.Fprintln(out, "No invalid book records detected.")
				return nil
			}

			fmt.Fprintf(out, "Found %d invalid records:\n", len(invalid))
			for i, b := range invalid {
				fmt.Fprintf(out, "%2d. ID: %s\n", i+1, b.ID)
				fmt.Fprintf(out, "    Title: %s\n", b.Title)
				fmt.Fprintf(out, "    Access: %s\n", b.AccessLevel)
			}

			if dryRun {
				fmt.Fprintln(out, "Dry run enabled; no deletions were performed.")
				return nil
			}
			if !force {
				confirmed, err := promptYesNo(cmd.InOrStdin(), out, fmt.Sprintf("Delete %d records", len(invalid)))
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(out, "Aborted. No records deleted.")
					return nil
				}
			}

			deleted := 0
			for _, b := range invalid {
				if err := st.Catalog.Books.Delete(cmd.Context(), b.ID); err != nil {
					fmt.Fprintf(out, "Failed to delete %s: %v\n", b.ID, err)
					continue
				}
				deleted++
			}
			fmt.Fprintf(out, "Deleted %d invalid records.\n", deleted)
			return nil
		},
	}
	cleanup.Flags().Bool("yes", false, "Skip confirmation prompt")
	cleanup.Flags().Bool("dry-run", false, "List invalid records without deleting")

	diag.AddCommand(query, cleanup)
	return diag
}

func invalidBooks(books []models.Book) []models.Book {
	out := make([]models.Book, 0)
	for _, b := range books {
		if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Author) == "" || !models.IsValidAccessLevel(b.AccessLevel) {
			out = append(out, b)
		}
	}
	return out
}

func promptYesNo(in io.Reader, out io.Writer, action string) (bool, error) {
	fmt.Fprintf(out, "%s? Type 'yes' to confirm: ", action)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes", nil
}

func truncateString(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}
