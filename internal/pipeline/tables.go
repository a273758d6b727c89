package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/ppiankov/freebase2wikidata/internal/mapping"
	"github.com/ppiankov/freebase2wikidata/internal/model"
	"github.com/ppiankov/freebase2wikidata/internal/stats"
)

// MappingSource provides the remote inputs of the mapping tables
type MappingSource interface {
	MappingWikitext(ctx context.Context) (string, error)
	PropertyTypes(ctx context.Context, pids []string) (map[string]model.ValueType, error)
}

// LoadWikitext reads the mapping document from cfg.DocumentFile, fetching and
// storing it there when the file does not exist yet
func LoadWikitext(ctx context.Context, cfg model.MappingConfig, source MappingSource) (string, error) {
	if cfg.DocumentFile != "" {
		data, err := os.ReadFile(cfg.DocumentFile)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read mapping document: %w", err)
		}
	}

	wikitext, err := source.MappingWikitext(ctx)
	if err != nil {
		return "", err
	}
	if cfg.DocumentFile != "" {
		if err := os.WriteFile(cfg.DocumentFile, []byte(wikitext), 0o644); err != nil {
			return "", fmt.Errorf("write mapping document: %w", err)
		}
	}
	return wikitext, nil
}

// BuildTables builds the item and property tables and resolves the datatype of
// every target property
func BuildTables(ctx context.Context, cfg model.MappingConfig, source MappingSource, counters *stats.Counters, log *slog.Logger) (*mapping.Tables, error) {
	wikitext, err := LoadWikitext(ctx, cfg, source)
	if err != nil {
		return nil, fmt.Errorf("mapping document: %w", err)
	}

	items, err := mapping.BuildItemMap(cfg, counters, log)
	if err != nil {
		return nil, fmt.Errorf("item mapping: %w", err)
	}
	properties, err := mapping.BuildPropertyMap(wikitext, cfg, counters)
	if err != nil {
		return nil, fmt.Errorf("property mapping: %w", err)
	}
	tables := mapping.NewTables(items, properties)

	types, err := loadPropertyTypes(ctx, cfg, source, tables.TargetPIDs())
	if err != nil {
		return nil, err
	}
	tables.SetPropertyTypes(types)

	log.Info("mapping tables ready",
		"items", tables.ItemCount(),
		"properties", tables.PropertyCount(),
		"property_types", len(types),
	)
	return tables, nil
}

func loadPropertyTypes(ctx context.Context, cfg model.MappingConfig, source MappingSource, pids []string) (map[string]model.ValueType, error) {
	if cfg.PropertyTypesFile != "" {
		f, err := os.Open(cfg.PropertyTypesFile)
		if err == nil {
			defer func() { _ = f.Close() }()
			return mapping.ReadPropertyTypes(f)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open property types: %w", err)
		}
	}

	types, err := source.PropertyTypes(ctx, pids)
	if err != nil {
		return nil, err
	}

	if cfg.PropertyTypesFile != "" {
		if err := writePropertyTypesFile(cfg.PropertyTypesFile, types); err != nil {
			return nil, err
		}
	}
	return types, nil
}

func writePropertyTypesFile(path string, types map[string]model.ValueType) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create property types: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close property types: %w", closeErr)
		}
	}()
	return mapping.WritePropertyTypes(f, types)
}
