package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/infra/storage/postgres"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent fetch runs from the database journal",
	Args:  cobra.NoArgs,
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fatal("Failed to load config", err)
	}
	if !cfg.Database.Enabled() {
		fatal("History unavailable", errors.New("database.url is not configured"))
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		fatal("Failed to connect to database", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := db.Migrate(ctx); err != nil {
		fatal("Failed to migrate database", err)
	}

	runs, err := postgres.NewRunRepo(db).Recent(ctx, historyLimit)
	if err != nil {
		fatal("Failed to query fetch runs", err)
	}
	printRuns(os.Stdout, runs)
}

func printRuns(out io.Writer, runs []*domain.FetchRun) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "RUN\tSTARTED\tDURATION\tATTEMPTS\tOUTCOME\tSTATUS\tRECIPES")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%d\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Duration().Round(time.Millisecond),
			r.Attempts, r.Outcome, r.StatusCode, r.RecipeCount)
	}
	_ = w.Flush()
}
