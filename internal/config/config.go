// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and PERSONA_ environment variables on top.
// - External errors are wrapped with this package's sentinel errors.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// InputPath is the transaction table to read.
	InputPath string `koanf:"input_path"`

	// Delimiter is the field separator of the input table.
	Delimiter string `koanf:"delimiter"`

	// LookupKeys are persona keys to resolve after the run.
	LookupKeys []string `koanf:"lookup_keys"`

	// TopN caps the number of personas printed in the run report.
	TopN int `koanf:"top_n"`

	// SegmentLabels are the tier labels in ascending price order.
	SegmentLabels []string `koanf:"segment_labels"`

	// Suggestions caps fuzzy suggestions printed for unknown keys; 0 disables.
	Suggestions int `koanf:"suggestions"`

	// MetricsTextfile, when set, receives the Prometheus metrics of the run.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// OTelEndpoint, when set, exports pipeline traces over OTLP/HTTP.
	OTelEndpoint string `koanf:"otel_endpoint"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		InputPath:     "datasets/persona.csv",
		Delimiter:     ",",
		LookupKeys:    []string{"TUR_ANDROID_FEMALE_31_40", "FRA_IOS_FEMALE_31_40"},
		TopN:          10,
		SegmentLabels: []string{"D", "C", "B", "A"},
		Suggestions:   3,
	}
}
