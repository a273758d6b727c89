package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/freebase2wikidata/internal/cvt"
	"github.com/ppiankov/freebase2wikidata/internal/mapping"
	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/pipeline"
	"github.com/ppiankov/freebase2wikidata/internal/reviewed"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

var (
	outputDir      string
	referencesFile string
	cvtBackend     string
	metricsAddr    string
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <dump>",
	Short: "Convert a Freebase dump into statement TSV files",
	Long: `Convert maps every triple of a Freebase dump to Wikidata statements:
- Build or load the CVT id list, the CVT triple index and the reviewed facts
- Map the optional reference file and attach its URLs as S854 sources
- Write freebase-mapped.tsv, coordinates-mapped.tsv and reviewed-mapped.tsv

Side tables are cached in the output directory and reused by later runs.

Example:
  freebase2wikidata convert freebase-rdf-latest.gz --output-dir ./out
  freebase2wikidata convert dump.nt --references refs.tsv --cvt-backend sqlite
  freebase2wikidata convert dump.nt.gz --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&outputDir, "output-dir", "./out", "output and cache directory")
	convertCmd.Flags().StringVar(&referencesFile, "references", "", "reference TSV (/m/xxx, /a/b/c, object, urls...)")
	convertCmd.Flags().StringVar(&cvtBackend, "cvt-backend", "", "CVT index backend (memory, sqlite)")
	convertCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	if cvtBackend != "" {
		cfg.CVT.Backend = cvtBackend
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()
	log := slog.Default()

	printHeader("freebase2wikidata convert")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", args[0])
	fmt.Fprintf(os.Stderr, "  References:   %s\n", referencesFile)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  CVT backend:  %s\n", cfg.CVT.Backend)
	fmt.Fprintf(os.Stderr, "\n")

	counters := stats.New()
	if cfg.Metrics.Addr != "" {
		stop, err := serveMetrics(cfg.Metrics.Addr, counters, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	tables, err := pipeline.BuildTables(ctx, cfg.Mapping, newWikidataClient(cfg), counters, log)
	if err != nil {
		return fmt.Errorf("build mapping tables: %w", err)
	}

	store, closeStore, err := openCVTStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	facts := reviewed.New()
	mapper := mapping.NewMapper(tables, store, facts, counters)
	converter := pipeline.NewConverter(cfg, mapper, store, facts, log)

	result, err := converter.Run(ctx, pipeline.Options{
		Input:      args[0],
		References: referencesFile,
		OutputDir:  outputDir,
	})
	if err != nil {
		return fmt.Errorf("convert failed: %w", err)
	}

	printHeader("Conversion Complete")
	fmt.Fprintf(os.Stderr, "  Lines:          %d\n", result.Lines)
	fmt.Fprintf(os.Stderr, "  Statements:     %d\n", result.Statements)
	fmt.Fprintf(os.Stderr, "  Coordinates:    %d\n", result.Coordinates)
	fmt.Fprintf(os.Stderr, "  Reviewed:       %d\n", result.Reviewed)
	fmt.Fprintf(os.Stderr, "  Used reviewed facts: %d\n", result.UsedReviewed)
	fmt.Fprintf(os.Stderr, "\n")
	if _, err := counters.WriteTo(os.Stderr); err != nil {
		return err
	}
	return nil
}

// openCVTStore opens the configured CVT backend
func openCVTStore(cfg *model.Config) (cvt.Store, func(), error) {
	expecting, err := cvt.LoadPropertySet(cfg.CVT.ExpectingPropertiesFile)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.CVT.Backend {
	case "memory", "":
		return cvt.NewIndex(expecting), func() {}, nil
	case "sqlite":
		path := cfg.CVT.SQLitePath
		if path == "" {
			path = filepath.Join(outputDir, "cvt-triples.db")
		}
		store, err := cvt.OpenSQLite(path, expecting)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cvt backend %q", cfg.CVT.Backend)
	}
}
