package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lcx/hermes/config"
)

// ReporterCfg configures the metrics reporter from the "metrics"
// configuration section. The recording functions exist either way; this
// only decides whether a Prometheus reporter is installed behind them
// and how it exports.
type ReporterCfg struct {
	// Enabled installs a Prometheus reporter on load. When false the
	// recording functions stay no-ops.
	Enabled bool `mapstructure:"enabled"`

	// Namespace prefixes every exported metric name. Defaults to
	// "hermes" when empty.
	Namespace string `mapstructure:"namespace"`

	// ConstLabels are attached to every exported metric, typically the
	// process identity.
	ConstLabels map[string]string `mapstructure:"constLabels"`

	// Buckets overrides the stopwatch histogram buckets, in seconds.
	// Defaults to prometheus.DefBuckets when empty.
	Buckets []float64 `mapstructure:"buckets"`
}

// GetName returns the configuration name used by the config manager.
func (cfg *ReporterCfg) GetName() string {
	return "metrics"
}

// Validate checks the configuration values for consistency.
func (cfg *ReporterCfg) Validate() error {
	for i := 1; i < len(cfg.Buckets); i++ {
		if cfg.Buckets[i] <= cfg.Buckets[i-1] {
			return fmt.Errorf("buckets must be strictly increasing, got %v", cfg.Buckets)
		}
	}
	return nil
}

// Options translates the configuration into reporter options. Zero
// values are dropped so the reporter defaults apply.
func (cfg *ReporterCfg) Options() []PrometheusOption {
	var opts []PrometheusOption
	if cfg.Namespace != "" {
		opts = append(opts, WithNamespace(cfg.Namespace))
	}
	if len(cfg.ConstLabels) != 0 {
		opts = append(opts, WithConstLabels(prometheus.Labels(cfg.ConstLabels)))
	}
	if len(cfg.Buckets) != 0 {
		opts = append(opts, WithBuckets(cfg.Buckets))
	}
	return opts
}

// InitializeWithConfigManager loads the "metrics" section of the given
// configuration manager and installs a Prometheus reporter when enabled.
// The reporter is installed once and not hot reloaded: collectors cannot
// be registered twice on the same registry.
func InitializeWithConfigManager(configManager config.ConfigManager) error {
	if configManager == nil {
		return nil
	}

	cfg := &ReporterCfg{}
	if err := configManager.LoadConfig(cfg.GetName(), cfg); err != nil {
		return err
	}

	if !cfg.Enabled {
		return nil
	}

	SetReporter(NewPrometheusReporter(cfg.Options()...))
	return nil
}

// Initialize builds the reporter from the singleton configuration
// manager.
func Initialize() error {
	return InitializeWithConfigManager(config.GetInstance())
}
