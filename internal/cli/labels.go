package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/freebase2wikidata/internal/labels"
	"github.com/ppiankov/freebase2wikidata/internal/mapping"
	"github.com/ppiankov/freebase2wikidata/internal/pipeline"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

const topLanguages = 10

var labelsOutputDir string

// labelsCmd represents the labels command
var labelsCmd = &cobra.Command{
	Use:   "labels <wikidata-dump.json> <freebase-labels.tsv>",
	Short: "List Freebase labels missing from Wikidata items",
	Long: `Labels compares Freebase topic labels with the label languages of the
mapped Wikidata items and writes the missing ones to freebase-new-labels.tsv.

The label languages of the Wikidata dump are cached in
wikidata-labels-languages.tsv inside the output directory.

Example:
  freebase2wikidata labels wikidata-all.json freebase-labels.tsv --output-dir ./out`,
	Args: cobra.ExactArgs(2),
	RunE: runLabels,
}

func init() {
	rootCmd.AddCommand(labelsCmd)

	labelsCmd.Flags().StringVar(&labelsOutputDir, "output-dir", "./out", "output and cache directory")
}

func runLabels(cmd *cobra.Command, args []string) (err error) {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	log := slog.Default()

	if err := os.MkdirAll(labelsOutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	counters := stats.New()
	items, err := mapping.BuildItemMap(cfg.Mapping, counters, log)
	if err != nil {
		return fmt.Errorf("item mapping: %w", err)
	}

	index, cached, err := labels.LoadLanguageIndex(ctx, filepath.Join(labelsOutputDir, "wikidata-labels-languages.tsv"), args[0])
	if err != nil {
		return fmt.Errorf("label languages: %w", err)
	}
	log.Info("label languages ready", "items", len(index), "cached", cached)

	in, err := pipeline.OpenInput(args[1])
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	outPath := filepath.Join(labelsOutputDir, "freebase-new-labels.tsv")
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output: %w", closeErr)
		}
	}()

	importer := labels.NewImporter(cfg.Labels, mapping.NewTables(items, nil), index, counters, log)
	report, err := importer.Run(ctx, in, out)
	if err != nil {
		return fmt.Errorf("labels failed: %w", err)
	}

	printHeader("Labels Complete")
	fmt.Fprintf(os.Stderr, "  Mapped topic labels:  %d\n", labels.Total(report.Mapped))
	fmt.Fprintf(os.Stderr, "  New labels:           %d\n", labels.Total(report.New))
	fmt.Fprintf(os.Stderr, "  Existing labels:      %d\n", labels.Total(report.Existing))
	fmt.Fprintf(os.Stderr, "  Missing data:         %d\n", report.MissingData)
	fmt.Fprintf(os.Stderr, "  Invalid lines:        %d\n", report.Invalid)
	fmt.Fprintf(os.Stderr, "  Output:               %s\n", outPath)
	fmt.Fprintf(os.Stderr, "\n")

	ranked := labels.Ranked(report.New)
	if len(ranked) > topLanguages {
		ranked = ranked[:topLanguages]
	}
	for _, lc := range ranked {
		fmt.Fprintf(os.Stderr, "  %-10s %d\n", lc.Language, lc.Count)
	}
	return nil
}
