package cmd

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/MeKo-Tech/cardpanda/internal/barcode"
	"github.com/MeKo-Tech/cardpanda/internal/batch"
	"github.com/spf13/cobra"
)

var batchFormats = []string{formatText, formatJSON, "csv"}

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch MANIFEST|DIR...",
	Short: "Render every entry of CSV manifests",
	Long: `Render the entries of one or more CSV manifests in parallel.

A manifest has a header row with a payload column and optional name, type,
raw_type, vocabulary and color columns. Directories are searched for files
matching --include. Each entry is written as a numbered PNG in the output
directory; --import also adds every entry to the card store.

Examples:
  cardpanda batch cards.csv -o out
  cardpanda batch manifests/ --recursive --workers 4 --format json
  cardpanda batch cards.csv --import --no-images`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		format, _ := cmd.Flags().GetString("format")
		if !slices.Contains(batchFormats, format) {
			return fmt.Errorf("invalid format %q (must be text, json or csv)", format)
		}

		workers := cfg.Batch.Workers
		if cmd.Flags().Changed("workers") {
			workers, _ = cmd.Flags().GetInt("workers")
			if workers < 1 {
				return fmt.Errorf("invalid worker count: %d (must be at least 1)", workers)
			}
		}
		if workers == 0 {
			workers = runtime.NumCPU()
		}

		vocab, err := vocabularyFlag(cmd, barcode.VocabularyLiveMetadata)
		if err != nil {
			return err
		}

		bc := batch.DefaultConfig()
		bc.Workers = workers
		bc.Vocabulary = vocab
		bc.Recursive, _ = cmd.Flags().GetBool("recursive")
		bc.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
		bc.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
		if noImages, _ := cmd.Flags().GetBool("no-images"); !noImages {
			bc.OutputDir, _ = cmd.Flags().GetString("output-dir")
		}
		if doImport, _ := cmd.Flags().GetBool("import"); doImport {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			bc.Store = store
		}

		renderer, err := newRenderer(cfg)
		if err != nil {
			return err
		}

		result, err := batch.Process(cmd.Context(), renderer, args, bc)
		if err != nil {
			return err
		}

		results, _ := cmd.Flags().GetString("results")
		if err := result.SaveResults(cmd.OutOrStdout(), format, results); err != nil {
			return err
		}
		if stats, _ := cmd.Flags().GetBool("stats"); stats {
			result.PrintStats(cmd.ErrOrStderr())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringP("output-dir", "o", "barcodes", "directory for rendered PNGs")
	batchCmd.Flags().Bool("no-images", false, "render without writing PNGs")
	batchCmd.Flags().Bool("import", false, "add every entry to the card store")
	batchCmd.Flags().IntP("workers", "w", 0, "parallel renders (default batch.workers, or one per CPU)")
	batchCmd.Flags().String("vocabulary", "", "vocabulary of raw_type values: live-metadata (default) or classification")
	batchCmd.Flags().BoolP("recursive", "r", false, "search directories recursively")
	batchCmd.Flags().StringSlice("include", []string{"*.csv"}, "file patterns to include when searching directories")
	batchCmd.Flags().StringSlice("exclude", nil, "file patterns to exclude")
	batchCmd.Flags().StringP("format", "f", formatText, "results format (text, json, csv)")
	batchCmd.Flags().String("results", "", "write results to this file instead of stdout")
	batchCmd.Flags().Bool("stats", false, "print processing statistics to stderr")
}
