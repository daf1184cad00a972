package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vietddude/recipefetch/internal/core/domain"
	"github.com/vietddude/recipefetch/internal/pipeline/present"
)

var withPreview bool

var showCmd = &cobra.Command{
	Use:   "show [recipe_id]",
	Short: "Show a single recipe",
	Args:  cobra.ExactArgs(1),
	Run:   runShow,
}

func init() {
	showCmd.Flags().BoolVar(&withPreview, "preview", false, "load a preview of the recipe's source page")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := loadApp(ctx, cmd)
	defer app.Stop(context.Background())

	_ = app.Model().Load(ctx)

	model := app.Model()
	if view := model.View(); view.Kind != present.ViewDataAvailable {
		printView(os.Stdout, view, "")
		os.Exit(1)
	}
	if !model.Select(args[0]) {
		fmt.Printf("No recipe with id %s.\n", args[0])
		os.Exit(1)
	}
	recipe, _ := model.Selected()
	printRecipe(os.Stdout, recipe)

	if withPreview && recipe.SourceURL != nil {
		p, err := app.Preview(ctx, recipe)
		if err != nil {
			fmt.Printf("\nPreview unavailable: %v\n", err)
			return
		}
		printPreview(os.Stdout, p)
	}
}

func printRecipe(out io.Writer, r domain.Recipe) {
	fmt.Fprintf(out, "%s\n", r.Name)
	fmt.Fprintf(out, "  Cuisine:  %s\n", r.Cuisine)
	fmt.Fprintf(out, "  ID:       %s\n", r.ID)
	printOptional(out, "Photo:", r.PhotoURLLarge)
	printOptional(out, "Thumb:", r.PhotoURLSmall)
	printOptional(out, "Source:", r.SourceURL)
	printOptional(out, "YouTube:", r.YoutubeURL)
}

func printOptional(out io.Writer, label string, v *string) {
	if v != nil {
		fmt.Fprintf(out, "  %-9s %s\n", label, *v)
	}
}

func printPreview(out io.Writer, p domain.SourcePreview) {
	fmt.Fprintln(out)
	if p.SiteName != "" {
		fmt.Fprintf(out, "%s: %s\n", p.SiteName, p.Title)
	} else {
		fmt.Fprintln(out, p.Title)
	}
	if p.Description != "" {
		fmt.Fprintf(out, "  %s\n", p.Description)
	}
	if p.Image != "" {
		fmt.Fprintf(out, "  Image: %s\n", p.Image)
	}
}
