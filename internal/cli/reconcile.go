package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/freebase2wikidata/internal/pipeline"
	"github.com/ppiankov/freebase2wikidata/internal/reconcile"
)

// reconcileCmd represents the reconcile-keys command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile-keys <wikidata.tsv> <freebase-keys> <output.pairs>",
	Short: "Match Freebase topics to Wikidata items by external identifiers",
	Long: `Reconcile-keys joins Freebase /key/ triples with Wikidata identifier
statements (item, property, value lines) for every /key/ property of the
mapping page, and writes the matched mid/qid pairs.

The output is a pairs file usable as an item mapping input.

Example:
  freebase2wikidata reconcile-keys wikidata-ids.tsv freebase-keys.nt mappings/keys.pairs`,
	Args: cobra.ExactArgs(3),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) (err error) {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	wikitext, err := pipeline.LoadWikitext(ctx, cfg.Mapping, newWikidataClient(cfg))
	if err != nil {
		return fmt.Errorf("mapping document: %w", err)
	}
	rc := reconcile.New(reconcile.KeyProperties(wikitext))

	slog.Info("reading wikidata ids", "file", args[0])
	wd, err := pipeline.OpenInput(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = wd.Close() }()
	if err := rc.ReadWikidata(ctx, wd); err != nil {
		return fmt.Errorf("wikidata ids: %w", err)
	}

	slog.Info("reading freebase keys", "file", args[1])
	fb, err := pipeline.OpenInput(args[1])
	if err != nil {
		return err
	}
	defer func() { _ = fb.Close() }()
	if err := rc.ReadFreebase(ctx, fb); err != nil {
		return fmt.Errorf("freebase keys: %w", err)
	}

	out, err := os.Create(args[2])
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output: %w", closeErr)
		}
	}()

	result, err := rc.Match(out)
	if err != nil {
		return err
	}

	printHeader("Reconciliation Complete")
	fmt.Fprintf(os.Stderr, "  Key properties:   %d\n", result.KeysUsed)
	fmt.Fprintf(os.Stderr, "  Wikidata ids:     %d\n", result.WikidataIDs)
	fmt.Fprintf(os.Stderr, "  Freebase keys:    %d\n", result.FreebaseKeys)
	fmt.Fprintf(os.Stderr, "  Matched:          %d\n", result.MatchedAll)
	fmt.Fprintf(os.Stderr, "  Mapped topics:    %d\n", result.Mapped)
	fmt.Fprintf(os.Stderr, "  Conflicts:        %d\n", result.Conflicts)
	fmt.Fprintf(os.Stderr, "\n")
	return nil
}
