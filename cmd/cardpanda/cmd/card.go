package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/MeKo-Tech/cardpanda/internal/capture"
	"github.com/MeKo-Tech/cardpanda/internal/cards"
	"github.com/spf13/cobra"
)

// cardCmd groups the card store commands.
var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Manage stored cards",
	Long: `Add, list, show, delete and render the cards in the card store.

The store is a YAML file, by default $XDG_DATA_HOME/cardpanda/cards.yaml;
use --store or store.path to pick another one.`,
}

var cardAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a card",
	Long: `Add a card from a payload and either a barcode type or a detector
symbology identifier.

Examples:
  cardpanda card add --name Bakery --payload 4006381333931 --type ean13
  cardpanda card add --payload 12345 --raw-type VNBarcodeSymbologyQR --source still-image`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format, err := reportFormat(cmd, cfg)
		if err != nil {
			return err
		}

		sourceName, _ := cmd.Flags().GetString("source")
		src, err := capture.ParseSource(sourceName)
		if err != nil {
			return err
		}
		payload, _ := cmd.Flags().GetString("payload")
		captured, err := capturedFromFlags(cmd, payload, src)
		if err != nil {
			return err
		}

		var col *cards.Color
		if s, _ := cmd.Flags().GetString("color"); s != "" {
			c, err := cards.ParseColor(s)
			if err != nil {
				return err
			}
			col = &c
		}
		name, _ := cmd.Flags().GetString("name")

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		rec, err := store.Create(cmd.Context(), cards.DraftFromCapture(captured, name, col))
		if err != nil {
			return fmt.Errorf("failed to add card: %w", err)
		}

		if format == formatJSON {
			return writeJSON(cmd.OutOrStdout(), rec)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added card %s (%s, %s)\n", rec.ID, rec.Name, rec.Type)
		return nil
	},
}

var cardListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List cards in name order",
	Long: `List cards in name order. The number in the first column is the one
export --pages refers to.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format, err := reportFormat(cmd, cfg)
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		records, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == formatJSON {
			return writeJSON(out, struct {
				Cards []cards.Record `json:"cards"`
				Count int            `json:"count"`
			}{records, len(records)})
		}
		if len(records) == 0 {
			_, _ = fmt.Fprintln(out, "No cards stored.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "#\tID\tNAME\tTYPE\tPAYLOAD\tCOLOR")
		for i, r := range records {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, r.ID, r.Name, r.Type, r.Payload, r.Color)
		}
		return tw.Flush()
	},
}

var cardShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format, err := reportFormat(cmd, cfg)
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == formatJSON {
			return writeJSON(out, rec)
		}
		_, _ = fmt.Fprintf(out, "ID: %s\n", rec.ID)
		_, _ = fmt.Fprintf(out, "Name: %s\n", rec.Name)
		_, _ = fmt.Fprintf(out, "Type: %s\n", rec.Type)
		_, _ = fmt.Fprintf(out, "Payload: %s\n", rec.Payload)
		_, _ = fmt.Fprintf(out, "Color: %s\n", rec.Color)
		_, _ = fmt.Fprintf(out, "Created: %s\n", rec.CreatedAt.Format(time.RFC3339))
		return nil
	},
}

var cardDeleteCmd = &cobra.Command{
	Use:     "delete ID",
	Aliases: []string{"rm"},
	Short:   "Delete a card",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(GetConfig())
		if err != nil {
			return err
		}
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %s\n", args[0])
		return nil
	},
}

var cardRenderCmd = &cobra.Command{
	Use:   "render ID",
	Short: "Render a card's barcode as PNG",
	Example: `  cardpanda card render 0b6f... -o bakery.png
  cardpanda card render 0b6f... -o - > bakery.png`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationBinaryOutput: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format, err := reportFormat(cmd, cfg)
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderer, err := newRenderer(cfg)
		if err != nil {
			return err
		}

		img := renderer.Render(rec.RenderRequest())

		output, _ := cmd.Flags().GetString("output")
		if err := writeImage(cmd, img, output); err != nil {
			return err
		}
		return printRenderReport(reportWriter(cmd, output), format, newRenderReport(rec.Payload, img, output))
	},
}

func init() {
	rootCmd.AddCommand(cardCmd)
	cardCmd.AddCommand(cardAddCmd, cardListCmd, cardShowCmd, cardDeleteCmd, cardRenderCmd)

	cardAddCmd.Flags().StringP("name", "n", "", "card name (default \"Card N\")")
	cardAddCmd.Flags().StringP("payload", "p", "", "barcode payload")
	cardAddCmd.Flags().String("color", "", "card colour as #RRGGBB or #RRGGBBAA")
	cardAddCmd.Flags().String("source", "live-camera", "where the code was read: live-camera or still-image")
	addTypeFlags(cardAddCmd)
	_ = cardAddCmd.MarkFlagRequired("payload")

	cardRenderCmd.Flags().StringP("output", "o", "barcode.png", "output PNG file, - for stdout")

	for _, c := range []*cobra.Command{cardAddCmd, cardListCmd, cardShowCmd, cardRenderCmd} {
		c.Flags().StringP("format", "f", "text", "output format (text, json)")
	}
}
