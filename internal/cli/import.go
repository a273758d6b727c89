package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/freebase2wikidata/internal/bot"
	"github.com/ppiankov/freebase2wikidata/internal/pipeline"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

var editsFile string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <statements.tsv>",
	Short: "Turn statement TSV into wbeditentity batches",
	Long: `Import checks every statement against the current item on Wikidata:
- Skip statements the item already has
- Refine existing statements with a more precise date
- Skip contradictions and statements already sourced elsewhere
- Add the rest with an "imported from" reference

Accepted statements are grouped per item and written as one JSON line per
edit to the output file.

Example:
  freebase2wikidata import out/reviewed-mapped.tsv --output edits.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&editsFile, "output", "edits.jsonl", "edit batch output file")
}

func runImport(cmd *cobra.Command, args []string) (err error) {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	in, err := pipeline.OpenInput(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(editsFile)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output: %w", closeErr)
		}
	}()

	printHeader("freebase2wikidata import")
	fmt.Fprintf(os.Stderr, "  Input:    %s\n", args[0])
	fmt.Fprintf(os.Stderr, "  Output:   %s\n", editsFile)
	fmt.Fprintf(os.Stderr, "  API:      %s\n", cfg.Wikidata.APIURL)
	fmt.Fprintf(os.Stderr, "\n")

	counters := stats.New()
	saver := bot.NewJSONLinesSaver(out, cfg.Writer.EditSummary)
	b := bot.New(newWikidataClient(cfg), bot.NewResolver(cfg.Writer), saver, counters, slog.Default())
	if err := b.Run(ctx, in); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	printHeader("Import Complete")
	fmt.Fprintf(os.Stderr, "  Edits written:  %d\n", saver.Saved())
	fmt.Fprintf(os.Stderr, "\n")
	_, err = counters.WriteTo(os.Stderr)
	return err
}
