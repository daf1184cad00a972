package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/recipefetch/internal/control"
	"github.com/vietddude/recipefetch/internal/pipeline/present"
)

var cuisineFilter string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch the feed and list recipes",
	Args:  cobra.NoArgs,
	Run:   runList,
}

func init() {
	listCmd.Flags().StringVar(&cuisineFilter, "cuisine", "", "only list recipes of this cuisine")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := loadApp(ctx, cmd)
	defer app.Stop(context.Background())

	// The outcome is rendered from the model.
	_ = app.Model().Load(ctx)

	view := app.Model().View()
	printView(os.Stdout, view, cuisineFilter)
	if view.Kind == present.ViewError {
		os.Exit(1)
	}
}

func loadApp(ctx context.Context, cmd *cobra.Command) *control.App {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fatal("Failed to load config", err)
	}
	app, err := control.New(ctx, cfg)
	if err != nil {
		fatal("Failed to initialize app", err)
	}
	return app
}

func printView(out io.Writer, view present.View, cuisine string) {
	switch view.Kind {
	case present.ViewLoading:
		fmt.Fprintln(out, "Loading recipes...")
		return
	case present.ViewError:
		fmt.Fprintln(out, view.Message)
		return
	case present.ViewEmpty:
		fmt.Fprintln(out, "No recipes available.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCUISINE")
	for _, r := range view.Recipes {
		if cuisine != "" && !strings.EqualFold(r.Cuisine, cuisine) {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.Name, r.Cuisine)
	}
	_ = w.Flush()
}
