package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/export"
	"github.com/spf13/cobra"
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export cards to a PDF, one card per page",
	Long: `Render every stored card, or the cards selected with --pages, and write
them to a PDF with one card face per page. Card numbers are the ones shown
by "card list".

Examples:
  cardpanda export -o cards.pdf
  cardpanda export -o cards.pdf --pages 1-3,5 --page-size A6
  cardpanda export -o - > cards.pdf`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationBinaryOutput: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		pageSize := cfg.Export.PageSize
		if cmd.Flags().Changed("page-size") {
			pageSize, _ = cmd.Flags().GetString("page-size")
		}
		if !export.ValidPageSize(pageSize) {
			return fmt.Errorf("invalid page size %q (supported: %v)", pageSize, export.PageSizes)
		}
		pages, _ := cmd.Flags().GetString("pages")
		output, _ := cmd.Flags().GetString("output")

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		records, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		renderer, err := newRenderer(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		exp := export.New(renderer)
		password, _ := cmd.Flags().GetString("password")
		opts := export.Options{PageSize: pageSize, Selection: pages, Password: password}
		start := time.Now()

		var summary export.Summary
		if output == stdoutPath {
			summary, err = exp.Write(ctx, cmd.OutOrStdout(), records, opts)
		} else {
			summary, err = exp.WriteFile(ctx, output, records, opts)
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		slog.Debug("Export finished", "pages", summary.Pages, "duration", time.Since(start))

		w := reportWriter(cmd, output)
		if output != stdoutPath {
			_, _ = fmt.Fprintf(w, "Exported %d card(s) to %s (%s)\n", summary.Pages, output, pageSize)
		}
		if summary.Placeholders > 0 {
			_, _ = fmt.Fprintf(w, "Warning: %d card(s) rendered as placeholder\n", summary.Placeholders)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("output", "o", "cards.pdf", "output PDF file, - for stdout")
	exportCmd.Flags().String("pages", "", "cards to export by list number, e.g. 1-3,5 (default all)")
	exportCmd.Flags().String("page-size", export.DefaultPageSize, "paper size (A4, A5, A6, Letter, Legal)")
	exportCmd.Flags().Duration("timeout", 0, "abort the export after this long (0 disables)")
	exportCmd.Flags().String("password", "", "encrypt the PDF with this password")
}
