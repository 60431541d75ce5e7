// file: cmd/catalog.go
// version: 1.0.0
// guid: 560a7864-dea0-4901-9d21-f2c875858d80

package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jdfalk/cliqbook/internal/export"
	"github.com/jdfalk/cliqbook/internal/filter"
	"github.com/jdfalk/cliqbook/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the store from fixtures",
		Long: `Load categories, write the book fixtures when the store has none, and
create the bootstrap admin account when no admin exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			res := st.Seed
			fmt.Fprintf(out, "Categories: %d", len(res.Categories))
			if res.CategoryFallback {
				fmt.Fprint(out, " (fallback list)")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Books seeded: %d (catalog holds %d)\n", res.BooksSeeded, st.Catalog.Books.Count())
			fmt.Fprintf(out, "Users seeded: %d (store holds %d)\n", res.UsersSeeded, st.Catalog.Users.Count())
			return nil
		},
	}
}

func (c *cli) booksCmd() *cobra.Command {
	var (
		state   = models.DefaultFilter()
		page    int
		perPage int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List catalog books",
		Long:  `List books matching the storefront filters, one page at a time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if state.AccessLevel != models.FilterAll && !models.IsValidAccessLevel(state.AccessLevel) {
				return fmt.Errorf("unknown access level %q", state.AccessLevel)
			}
			st, err := c.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if perPage < 1 {
				perPage = st.Catalog.Settings.Get().BooksPerPage
			}
			books := st.Catalog.Books.Filter(st.Catalog.Categories.List(), state)
			result := filter.Paginate(books, page, perPage)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printBooks(out, result)
		},
	}
	cmd.Flags().StringVar(&state.Category, "category", models.FilterAll, "category id, or all")
	cmd.Flags().Float64Var(&state.Rating, "rating", 0, "minimum rating")
	cmd.Flags().StringVar(&state.Search, "search", "", "match title, author or tags")
	cmd.Flags().StringVar(&state.AccessLevel, "access", models.FilterAll, "free, standard, premium or all")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "books per page (default: the booksPerPage setting)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the page as JSON")
	return cmd
}

func printBooks(w io.Writer, p filter.Page) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCATEGORY\tACCESS\tRATING")
	for _, b := range p.Books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.1f\n", b.ID, b.Title, b.Author, b.Category, b.AccessLevel, b.Rating)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Page %d of %d (%d books)\n", p.Page, p.TotalPages, p.Total)
	return err
}

func (c *cli) usersCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tMEMBERSHIP\tADMIN")
			for _, u := range st.Catalog.Users.Search(search) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Name, u.Email, u.Membership, u.IsAdmin)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "match name or email")

	cmd.AddCommand(&cobra.Command{
		Use:   "passwd <user-id>",
		Short: "Set a user's password",
		Long: `Set a user's password. On a terminal the password is read without echo;
otherwise the first line of stdin is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd)
			if err != nil {
				return err
			}
			st, err := c.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Catalog.Users.SetPassword(cmd.Context(), args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", args[0])
			return nil
		},
	})
	return cmd
}

// readPassword prompts without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "New password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) exportCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:       "export <books|users>",
		Short:     "Export a collection as CSV or NDJSON",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"books", "users"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != export.FormatCSV && format != export.FormatNDJSON {
				return fmt.Errorf("unknown format %q", format)
			}
			st, err := c.openApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
					return err
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			switch args[0] {
			case "books":
				err = export.Books(w, format, st.Catalog.Books.List())
			default:
				err = export.Users(w, format, st.Catalog.Users.List())
			}
			if errors.Is(err, export.ErrNoData) {
				fmt.Fprintf(cmd.ErrOrStderr(), "no %s to export\n", args[0])
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", export.FormatCSV, "csv or ndjson")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}
