package model

import "time"

// Config holds the complete converter configuration
type Config struct {
	Mapping      MappingConfig     `yaml:"mapping" mapstructure:"mapping"`
	CVT          CVTConfig         `yaml:"cvt" mapstructure:"cvt"`
	Reviewed     ReviewedConfig    `yaml:"reviewed" mapstructure:"reviewed"`
	Wikidata     WikidataConfig    `yaml:"wikidata" mapstructure:"wikidata"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Writer       WriterConfig      `yaml:"writer" mapstructure:"writer"`
	Labels       LabelsConfig      `yaml:"labels" mapstructure:"labels"`
	Logging      LogConfig         `yaml:"logging" mapstructure:"logging"`
	Metrics      MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// Override is one hardcoded From -> To entry merged into a mapping table.
// Pairs are used instead of maps because the keys contain dots.
type Override struct {
	From string `yaml:"from" mapstructure:"from"`
	To   string `yaml:"to" mapstructure:"to"`
}

// MappingConfig configures the item and property mapping tables
type MappingConfig struct {
	// Directory holds the *.pairs files and the redirects file
	Directory     string `yaml:"directory" mapstructure:"directory"`
	PairsPattern  string `yaml:"pairs_pattern" mapstructure:"pairs_pattern"`
	RedirectsFile string `yaml:"redirects_file" mapstructure:"redirects_file"`
	// DocumentFile is a local copy of the mapping wikitext, fetched when empty
	DocumentFile string `yaml:"document_file,omitempty" mapstructure:"document_file"`
	// PropertyTypesFile caches PID<TAB>datatype lines
	PropertyTypesFile    string     `yaml:"property_types_file,omitempty" mapstructure:"property_types_file"`
	ItemOverrides        []Override `yaml:"item_overrides" mapstructure:"item_overrides"`
	ItemExclusions       []string   `yaml:"item_exclusions" mapstructure:"item_exclusions"`
	PropertyOverrides    []Override `yaml:"property_overrides" mapstructure:"property_overrides"`
	PropertyPrefixFilter []string   `yaml:"property_prefix_filter" mapstructure:"property_prefix_filter"`
}

// CVTConfig configures the compound value node index
type CVTConfig struct {
	ExpectingPropertiesFile string `yaml:"expecting_properties_file" mapstructure:"expecting_properties_file"`
	Backend                 string `yaml:"backend" mapstructure:"backend"` // memory or sqlite
	SQLitePath              string `yaml:"sqlite_path,omitempty" mapstructure:"sqlite_path"`
}

// ReviewedConfig configures reviewed fact extraction
type ReviewedConfig struct {
	PropertyIDsFile string `yaml:"property_ids_file" mapstructure:"property_ids_file"` // property MID<TAB>/a/b/c
}

// WikidataConfig configures HTTP access to Wikidata
type WikidataConfig struct {
	APIURL         string        `yaml:"api_url" mapstructure:"api_url"`
	MappingPageURL string        `yaml:"mapping_page_url" mapstructure:"mapping_page_url"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	HTTPProxy      string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy        string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	BucketSize     int           `yaml:"bucket_size" mapstructure:"bucket_size"` // ids per wbgetentities call
	RespectRobots  bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig configures the HTTP response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig configures request pacing against Wikidata
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig configures parallel metadata fetches
type ConcurrencyConfig struct {
	FetchWorkers int `yaml:"fetch_workers" mapstructure:"fetch_workers"`
}

// WriterConfig configures the statement import path
type WriterConfig struct {
	ImportedFromProperty  string     `yaml:"imported_from_property" mapstructure:"imported_from_property"`
	ImportedFromItem      string     `yaml:"imported_from_item" mapstructure:"imported_from_item"`
	EditSummary           string     `yaml:"edit_summary" mapstructure:"edit_summary"`
	IgnoredReferences     []string   `yaml:"ignored_references" mapstructure:"ignored_references"`           // properties never counted as meaningful
	IgnoredReferenceSnaks []Override `yaml:"ignored_reference_snaks" mapstructure:"ignored_reference_snaks"` // exact property=item snaks never counted
}

// LabelsConfig configures the label import
type LabelsConfig struct {
	LanguageConversion map[string]string `yaml:"language_conversion" mapstructure:"language_conversion"`
	LanguageDenyList   []string          `yaml:"language_deny_list" mapstructure:"language_deny_list"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level     string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format    string `yaml:"format" mapstructure:"format"` // json or text
	Output    string `yaml:"output" mapstructure:"output"` // stdout, stderr or file
	FilePath  string `yaml:"file_path,omitempty" mapstructure:"file_path"`
	AddSource bool   `yaml:"add_source" mapstructure:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty" mapstructure:"addr"` // e.g. :9090, disabled when empty
}

// DefaultConfig returns the built-in configuration, including the hardcoded override tables
func DefaultConfig() *Config {
	return &Config{
		Mapping: MappingConfig{
			Directory:     "mappings",
			PairsPattern:  "*.pairs",
			RedirectsFile: "wikidata-redirects.tsv",
			ItemOverrides: []Override{
				{From: "m.05zppz", To: "Q6581097"},   // sex: male
				{From: "m.02zsn", To: "Q6581072"},    // sex: female
				{From: "m.0jst35z", To: "Q637413"},   // United States Census Bureau
				{From: "g.11x1k306j", To: "Q637413"}, // United States Census Bureau
				{From: "g.11x1gf2m6", To: "Q637413"}, // United States Census Bureau
			},
			ItemExclusions: []string{
				"m.04lsf6", // German Wikipedia
				"m.01wfbm", // English Wikipedia
				"m.0d07ph", // Wikipedia
			},
			PropertyOverrides: []Override{
				{From: "/ns/measurement_unit.dated_float.number", To: "QUANTITY"},
				{From: "/ns/measurement_unit.dated_integer.number", To: "QUANTITY"},
				{From: "/ns/measurement_unit.dated_integer.source", To: "S248"},
				{From: "/ns/measurement_unit.dated_money_value.amount", To: "QUANTITY"},
				{From: "/ns/measurement_unit.dated_percentage.rate", To: "QUANTITY"},
				{From: "/ns/measurement_unit.dated_percentage.source", To: "S248"},
				{From: "/ns/measurement_unit.money_value.amount", To: "QUANTITY"},
				{From: "/ns/location.mailing_address.citytown", To: "ITEM"},
				{From: "/ns/people.person.spouse_s", To: "SPOUSE"},
			},
			PropertyPrefixFilter: []string{},
		},
		CVT: CVTConfig{
			ExpectingPropertiesFile: "data/properties_expecting_cvt.csv",
			Backend:                 "memory",
		},
		Reviewed: ReviewedConfig{
			PropertyIDsFile: "data/freebase-property-ids.tsv",
		},
		Wikidata: WikidataConfig{
			APIURL:         "https://www.wikidata.org/w/api.php",
			MappingPageURL: "https://www.wikidata.org/wiki/Wikidata:WikiProject_Freebase/Mapping?action=raw",
			UserAgent:      "freebase2wikidata/0.1 (+https://github.com/ppiankov/freebase2wikidata)",
			Timeout:        30 * time.Second,
			BucketSize:     40,
			RespectRobots:  true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".freebase2wikidata-cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Concurrency: ConcurrencyConfig{
			FetchWorkers: 4,
		},
		Writer: WriterConfig{
			ImportedFromProperty: "P143",
			ImportedFromItem:     "Q15241312", // Freebase data dump
			EditSummary:          "Importation from Freebase",
			IgnoredReferences:    []string{"P813", "P143"}, // retrieved, imported from
			IgnoredReferenceSnaks: []Override{
				{From: "P248", To: "Q36578"}, // stated in: VIAF
			},
		},
		Labels: LabelsConfig{
			LanguageConversion: map[string]string{
				"iw":     "he",
				"pt-pt":  "pt", // pt is Portugal Portuguese
				"fil":    "tl", // Filipino is a standardized Tagalog
				"es-419": "es", // no Latin America Spanish
				"en-us":  "en",
			},
			LanguageDenyList: []string{"no", "zh-hant"},
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
