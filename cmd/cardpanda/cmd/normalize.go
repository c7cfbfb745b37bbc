package cmd

import (
	"errors"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/spf13/cobra"
)

type normalizeResult struct {
	RawType    string       `json:"raw_type"`
	Vocabulary string       `json:"vocabulary"`
	Type       barcode.Type `json:"type"`
	Known      bool         `json:"known"`
}

// normalizeCmd represents the normalize command.
var normalizeCmd = &cobra.Command{
	Use:   "normalize [RAW_TYPE]",
	Short: "Map a detector symbology identifier to a barcode type",
	Long: `Map a symbology identifier reported by a detector to the canonical
barcode type it is stored and rendered as. Unrecognised identifiers map to
code128.

Examples:
  cardpanda normalize org.gs1.EAN-13
  cardpanda normalize VNBarcodeSymbologyCode39FullASCIIChecksum --vocabulary classification
  cardpanda normalize --list --vocabulary classification`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		format, err := reportFormat(cmd, cfg)
		if err != nil {
			return err
		}
		vocab, err := vocabularyFlag(cmd, barcode.VocabularyLiveMetadata)
		if err != nil {
			return err
		}
		list, _ := cmd.Flags().GetBool("list")

		known := barcode.KnownIdentifiers(vocab)
		var ids []string
		switch {
		case list:
			ids = known
		case len(args) == 1:
			ids = args
		default:
			return errors.New("an identifier or --list is required")
		}

		results := make([]normalizeResult, 0, len(ids))
		for _, id := range ids {
			results = append(results, normalizeResult{
				RawType:    id,
				Vocabulary: vocab.String(),
				Type:       barcode.Normalize(id, vocab),
				Known:      slices.Contains(known, id),
			})
		}

		out := cmd.OutOrStdout()
		if format == formatJSON {
			if list {
				return writeJSON(out, results)
			}
			return writeJSON(out, results[0])
		}
		if !list {
			_, _ = fmt.Fprintln(out, results[0].Type)
			if !results[0].Known {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "unrecognised %s identifier, using %s\n",
					vocab, barcode.DefaultType)
			}
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, r := range results {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", r.RawType, r.Type)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().String("vocabulary", "", "identifier vocabulary: live-metadata (default) or classification")
	normalizeCmd.Flags().BoolP("list", "l", false, "list every known identifier of the vocabulary")
	normalizeCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
}
