package config

// FeatureConfig switches one optional part of the server on or off
type FeatureConfig struct {
	Enabled    bool    `yaml:"enabled"`
	BinaryPath *string `yaml:"binary_path,omitempty"` // Path to external binary
}

// FeaturesConfig holds the optional parts of the server. The control API
// itself cannot be disabled.
type FeaturesConfig struct {
	Events  FeatureConfig `yaml:"events"`  // GET /events
	Journal FeatureConfig `yaml:"journal"` // sqlite operation journal
	Metrics FeatureConfig `yaml:"metrics"` // GET /metrics
	SVG     FeatureConfig `yaml:"svg"`     // graphviz rendering
}

// FeatureInfo describes a feature for display
type FeatureInfo struct {
	Name    string
	Enabled bool
}

// DefaultFeatures enables everything
func DefaultFeatures() FeaturesConfig {
	return FeaturesConfig{
		Events:  FeatureConfig{Enabled: true},
		Journal: FeatureConfig{Enabled: true},
		Metrics: FeatureConfig{Enabled: true},
		SVG:     FeatureConfig{Enabled: true},
	}
}

// List returns every feature in a fixed order
func (f FeaturesConfig) List() []FeatureInfo {
	return []FeatureInfo{
		{Name: "events", Enabled: f.Events.Enabled},
		{Name: "journal", Enabled: f.Journal.Enabled},
		{Name: "metrics", Enabled: f.Metrics.Enabled},
		{Name: "svg", Enabled: f.SVG.Enabled},
	}
}

// DotBinary returns the graphviz binary to run, "" meaning dot from PATH
func (f FeaturesConfig) DotBinary() string {
	if f.SVG.BinaryPath == nil {
		return ""
	}
	return *f.SVG.BinaryPath
}
