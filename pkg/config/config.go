package config

import (
	"fmt"
	"slices"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/GridIndexor/internal/common"
	"github.com/goran-ethernal/GridIndexor/internal/logger"
	"github.com/goran-ethernal/GridIndexor/internal/types"
)

const (
	// WatermarkAdvance moves the watermark to the observed head after every fetch attempt,
	// accepting gaps left by failed chunks.
	WatermarkAdvance = "advance"
	// WatermarkContiguous moves the watermark only as far as chunks succeeded without a gap,
	// so the remainder is fetched again on the next tick.
	WatermarkContiguous = "contiguous"
)

// Config represents the complete configuration for GridIndexor.
type Config struct {
	// RPC contains the JSON-RPC endpoint configuration
	RPC RPCConfig `yaml:"rpc" json:"rpc" toml:"rpc"`

	// Indexer contains the event indexer configuration
	Indexer IndexerConfig `yaml:"indexer" json:"indexer" toml:"indexer"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`

	// API contains the query API configuration
	API *APIConfig `yaml:"api,omitempty" json:"api,omitempty" toml:"api,omitempty"`
}

// RPCConfig represents the connection to the chain.
type RPCConfig struct {
	// URL is the JSON-RPC endpoint URL
	URL string `yaml:"url" json:"url" toml:"url"`

	// CallTimeout bounds every individual RPC call
	CallTimeout common.Duration `yaml:"call_timeout" json:"call_timeout" toml:"call_timeout"`

	// Retry contains optional RPC retry configuration with exponential backoff.
	// When omitted every call is attempted exactly once.
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`

	// HeadFinality selects the block treated as the chain head
	// Options: "latest", "safe", "finalized"
	HeadFinality string `yaml:"head_finality" json:"head_finality" toml:"head_finality"`
}

// ApplyDefaults sets default values for optional RPC configuration fields.
func (r *RPCConfig) ApplyDefaults() {
	if r.CallTimeout.Duration == 0 {
		r.CallTimeout = common.NewDuration(10 * time.Second) //nolint:mnd
	}

	if r.HeadFinality == "" {
		r.HeadFinality = types.HeadLatest.String()
	}

	if r.Retry != nil {
		r.Retry.ApplyDefaults()
	}
}

// RetryConfig represents RPC retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 3
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(500 * time.Millisecond) //nolint:mnd
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(5 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// IndexerConfig represents the configuration of the event indexer.
type IndexerConfig struct {
	// ContractAddress is the grid contract to index. When empty or zero the
	// indexer is disabled and activation is a no-op.
	ContractAddress string `yaml:"contract_address" json:"contract_address" toml:"contract_address"`

	// ChunkSize is the maximum block range per eth_getLogs call
	ChunkSize uint64 `yaml:"chunk_size" json:"chunk_size" toml:"chunk_size"`

	// BackfillBlocks is the size of the historical window fetched once on activation
	BackfillBlocks uint64 `yaml:"backfill_blocks" json:"backfill_blocks" toml:"backfill_blocks"`

	// PollInterval is the cadence of the live polling loop
	PollInterval common.Duration `yaml:"poll_interval" json:"poll_interval" toml:"poll_interval"`

	// MaxEvents caps the retained orders and settlements
	MaxEvents int `yaml:"max_events" json:"max_events" toml:"max_events"`

	// BlockWindow is the number of distinct blocks kept for the orders-per-block series
	BlockWindow int `yaml:"block_window" json:"block_window" toml:"block_window"`

	// ActivePartitionWindow is the number of most recent orders scanned for active partitions
	ActivePartitionWindow int `yaml:"active_partition_window" json:"active_partition_window" toml:"active_partition_window"` //nolint:lll

	// WatermarkPolicy is "advance" or "contiguous"
	WatermarkPolicy string `yaml:"watermark_policy" json:"watermark_policy" toml:"watermark_policy"`
}

// ApplyDefaults sets default values for optional indexer configuration fields.
func (i *IndexerConfig) ApplyDefaults() {
	if i.ChunkSize == 0 {
		i.ChunkSize = 2000
	}
	if i.BackfillBlocks == 0 {
		i.BackfillBlocks = 10000
	}
	if i.PollInterval.Duration == 0 {
		i.PollInterval = common.NewDuration(2 * time.Second) //nolint:mnd
	}
	if i.MaxEvents == 0 {
		i.MaxEvents = 1000
	}
	if i.BlockWindow == 0 {
		i.BlockWindow = 50
	}
	if i.ActivePartitionWindow == 0 {
		i.ActivePartitionWindow = 100
	}
	if i.WatermarkPolicy == "" {
		i.WatermarkPolicy = WatermarkAdvance
	}
}

// Validate checks if the indexer configuration is valid.
func (i *IndexerConfig) Validate() error {
	if i.ContractAddress != "" && !ethcommon.IsHexAddress(i.ContractAddress) {
		return fmt.Errorf("indexer.contract_address: %q is not a valid address", i.ContractAddress)
	}
	if i.ChunkSize == 0 {
		return fmt.Errorf("indexer.chunk_size must be greater than zero")
	}
	if i.MaxEvents <= 0 {
		return fmt.Errorf("indexer.max_events must be greater than zero")
	}
	if i.BlockWindow <= 0 {
		return fmt.Errorf("indexer.block_window must be greater than zero")
	}
	if i.ActivePartitionWindow <= 0 {
		return fmt.Errorf("indexer.active_partition_window must be greater than zero")
	}
	if i.PollInterval.Duration <= 0 {
		return fmt.Errorf("indexer.poll_interval must be positive")
	}
	if !slices.Contains([]string{WatermarkAdvance, WatermarkContiguous}, i.WatermarkPolicy) {
		return fmt.Errorf("indexer.watermark_policy must be one of: '%s', '%s'", WatermarkAdvance, WatermarkContiguous)
	}
	return nil
}

// Enabled reports whether a contract address is configured.
func (i *IndexerConfig) Enabled() bool {
	if i.ContractAddress == "" {
		return false
	}
	return ethcommon.HexToAddress(i.ContractAddress) != (ethcommon.Address{})
}

// Address returns the configured contract address.
func (i *IndexerConfig) Address() ethcommon.Address {
	return ethcommon.HexToAddress(i.ContractAddress)
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - indexer: Activation and lifecycle
	//   - range-fetcher: Chunked log fetching
	//   - poll-loop: Live polling
	//   - backfill: Historical catch-up
	//   - api: Query API
	//   - rpc: RPC client
	//   - metrics-server: Prometheus endpoint
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}

	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.NormalizeName(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		if _, validComponent := common.AllComponents[common.NormalizeName(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		if _, valid := logger.ValidLogLevels[common.NormalizeName(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if level, ok := l.ComponentLevels[component]; ok {
		return common.NormalizeName(level)
	}
	return common.NormalizeName(l.DefaultLevel)
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	return common.NormalizeName(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l.Development
}

// IsNil lets the logger detect a typed nil *LoggingConfig.
func (l *LoggingConfig) IsNil() bool {
	return l == nil
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	// Format: "host:port" or ":port"
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for optional metrics configuration fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.ListenAddress == "" {
			return fmt.Errorf("listen_address is required when metrics are enabled")
		}
		if m.Path == "" {
			return fmt.Errorf("path is required when metrics are enabled")
		}
		if m.Path[0] != '/' {
			return fmt.Errorf("path must start with '/'")
		}
	}
	return nil
}

// APIConfig configures the read-only query API.
type APIConfig struct {
	// Enabled controls whether the API server is started
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the API server to
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// ReadTimeout, WriteTimeout and IdleTimeout configure the HTTP server
	ReadTimeout  common.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`
	WriteTimeout common.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`
	IdleTimeout  common.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`

	// DefaultLimit is used when a request carries no limit parameter
	DefaultLimit int `yaml:"default_limit" json:"default_limit" toml:"default_limit"`

	// TrustProxyHeaders takes the client IP from X-Forwarded-For or X-Real-IP.
	// Enable it only behind a proxy that sets them, since clients can forge
	// them to get a fresh rate limit bucket.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers" json:"trust_proxy_headers" toml:"trust_proxy_headers"`

	// RateLimit configures per-client request throttling
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit" toml:"rate_limit"`

	// CORS configures cross-origin access for browser dashboards
	CORS CORSConfig `yaml:"cors" json:"cors" toml:"cors"`
}

// RateLimitConfig configures the token bucket applied per client IP.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled" toml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second" toml:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst" toml:"burst"`
}

// CORSConfig configures allowed origins.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled" toml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
}

// ApplyDefaults sets default values for optional API configuration fields.
func (a *APIConfig) ApplyDefaults() {
	if a.ListenAddress == "" {
		a.ListenAddress = ":8080"
	}
	if a.ReadTimeout.Duration == 0 {
		a.ReadTimeout = common.NewDuration(10 * time.Second) //nolint:mnd
	}
	if a.WriteTimeout.Duration == 0 {
		a.WriteTimeout = common.NewDuration(10 * time.Second) //nolint:mnd
	}
	if a.IdleTimeout.Duration == 0 {
		a.IdleTimeout = common.NewDuration(60 * time.Second) //nolint:mnd
	}
	if a.DefaultLimit == 0 {
		a.DefaultLimit = 50
	}
	if a.RateLimit.RequestsPerSecond == 0 {
		a.RateLimit.RequestsPerSecond = 20
	}
	if a.RateLimit.Burst == 0 {
		a.RateLimit.Burst = 40
	}
	if a.CORS.Enabled && len(a.CORS.AllowedOrigins) == 0 {
		a.CORS.AllowedOrigins = []string{"*"}
	}
}

// Validate checks if the API configuration is valid.
func (a *APIConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	if a.ListenAddress == "" {
		return fmt.Errorf("listen_address is required when the API is enabled")
	}
	if a.DefaultLimit < 0 {
		return fmt.Errorf("default_limit must not be negative")
	}
	if a.RateLimit.Enabled && (a.RateLimit.RequestsPerSecond <= 0 || a.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit requires positive requests_per_second and burst")
	}
	return nil
}

// ApplyDefaults sets default values for optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.RPC.ApplyDefaults()
	c.Indexer.ApplyDefaults()

	if c.Logging != nil {
		c.Logging.ApplyDefaults()
	}

	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}

	if c.API != nil {
		c.API.ApplyDefaults()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.RPC.URL == "" {
		return fmt.Errorf("rpc.url is required")
	}

	if c.RPC.CallTimeout.Duration <= 0 {
		return fmt.Errorf("rpc.call_timeout must be positive")
	}

	if _, err := types.ParseHeadFinality(c.RPC.HeadFinality); err != nil {
		return fmt.Errorf("rpc.head_finality: %w", err)
	}

	if err := c.Indexer.Validate(); err != nil {
		return err
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	if c.API != nil {
		if err := c.API.Validate(); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	return nil
}
