// Package turnscmder provides the turns command for inspecting chat turns
// recorded by "deepstream serve".
package turnscmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/deepstream/cmd/deepstream/sqlitepath"
	"github.com/papercomputeco/deepstream/pkg/cliui"
	"github.com/papercomputeco/deepstream/pkg/storage"
	"github.com/papercomputeco/deepstream/pkg/storage/postgres"
	"github.com/papercomputeco/deepstream/pkg/storage/sqlite"
	"github.com/papercomputeco/deepstream/pkg/utils"
)

const turnsLongDesc string = `List chat turns recorded by "deepstream serve".

Turns are read from the server's SQLite database or from PostgreSQL when
--postgres is given. Without --sqlite the database is located via
DEEPSTREAM_SQLITE, then deepstream.db in the current directory, .deepstream/
and the home directory.

Pass a turn ID to print that turn in full.

Examples:
  deepstream turns
  deepstream turns --limit 5
  deepstream turns --sqlite ./deepstream.db 0b6c…
  deepstream turns --postgres postgres://localhost/deepstream --json`

const turnsShortDesc string = "List recorded chat turns"

type turnsCommander struct {
	sqlitePath  string
	postgresDSN string
	limit       int
	asJSON      bool

	out io.Writer
}

func NewTurnsCmd() *cobra.Command {
	cmder := &turnsCommander{}

	cmd := &cobra.Command{
		Use:   "turns [id]",
		Short: turnsShortDesc,
		Long:  turnsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if len(args) == 1 {
				return cmder.runGet(ctx, args[0])
			}
			return cmder.runList(ctx)
		},
	}

	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to SQLite database")
	cmd.Flags().StringVar(&cmder.postgresDSN, "postgres", "", "PostgreSQL connection string, takes precedence over --sqlite")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of turns to list (0 for all)")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print turns as JSON")

	return cmd
}

func (c *turnsCommander) openDriver(ctx context.Context) (storage.Driver, error) {
	if c.postgresDSN != "" {
		driver, err := postgres.NewDriver(ctx, c.postgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return driver, nil
	}

	path, err := sqlitepath.ResolveSQLitePath(c.sqlitePath)
	if err != nil {
		return nil, err
	}

	driver, err := sqlite.NewDriver(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	return driver, nil
}

func (c *turnsCommander) runList(ctx context.Context) error {
	if c.limit < 0 {
		return errors.New("--limit must not be negative")
	}

	driver, err := c.openDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	turns, err := driver.ListTurns(ctx, c.limit)
	if err != nil {
		return fmt.Errorf("listing turns: %w", err)
	}

	if c.asJSON {
		return c.writeJSON(turns)
	}

	if len(turns) == 0 {
		fmt.Fprintf(c.out, "\n  %s No turns recorded.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.HeaderStyle.Render(fmt.Sprintf("%d turns", len(turns))))
	for _, t := range turns {
		fmt.Fprintf(c.out, "  %s  %s  %s  %s\n      %s\n",
			cliui.KeyStyle.Render(utils.Truncate(t.ID, 8)),
			cliui.DimStyle.Render(t.CreatedAt.Local().Format("2006-01-02 15:04:05")),
			cliui.NameStyle.Render(t.Model),
			cliui.DimStyle.Render(cliui.FormatDuration(t.Duration)),
			cliui.ValueStyle.Render(preview(t.Content)),
		)
	}
	fmt.Fprintln(c.out)

	return nil
}

func (c *turnsCommander) runGet(ctx context.Context, id string) error {
	driver, err := c.openDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	turn, err := driver.GetTurn(ctx, id)
	if err != nil {
		return err
	}

	if c.asJSON {
		return c.writeJSON(turn)
	}

	fmt.Fprintf(c.out, "\n  %s %s\n", cliui.KeyStyle.Render("Turn:"), turn.ID)
	fmt.Fprintf(c.out, "  %s %s %s\n", cliui.KeyStyle.Render("Model:"), cliui.NameStyle.Render(turn.Model),
		cliui.DimStyle.Render(fmt.Sprintf("(%s, temperature %.2g)", turn.Provider, turn.Temperature)))
	fmt.Fprintf(c.out, "  %s %s\n\n", cliui.KeyStyle.Render("Took:"), cliui.FormatDuration(turn.Duration))

	for _, m := range turn.Messages {
		fmt.Fprintf(c.out, "  %s %s\n", cliui.DimStyle.Render(m.Role+">"), m.Content)
	}

	if turn.Reasoning != "" {
		fmt.Fprintf(c.out, "\n%s\n", cliui.ReasoningStyle.Render(turn.Reasoning))
	}
	fmt.Fprintf(c.out, "\n%s\n\n", turn.Content)

	return nil
}

func (c *turnsCommander) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func preview(content string) string {
	return utils.Truncate(strings.Join(strings.Fields(content), " "), 72)
}
