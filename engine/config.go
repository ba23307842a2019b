package engine

// MaxToolRounds bounds the number of tool rounds per field. One round means
// at most two model calls per field: the request phase and the final phase.
const MaxToolRounds = 1

const (
	// DefaultUnknown is written into fields no answer could be found for.
	// A resolved template never carries a null content.
	DefaultUnknown = "unknown"

	// DefaultWorkers is the concurrent (section, subject) job limit.
	DefaultWorkers = 8
)

// defaultNumericFields are the fields served from the trusted numeric
// dataset, matching the indicators the OFGL client produces.
var defaultNumericFields = []string{
	"population",
	"data_from_year",
	"total_budget",
	"total_budget_per_person",
	"debt_repayment_capacity",
	"debt_ratio",
	"debt_duration",
}

// Config tunes one Engine.
type Config struct {
	numericFields map[string]bool
	unknown       string
	workers       int
}

type Option func(*Config)

// WithNumericFields replaces the default numeric-field set.
func WithNumericFields(names ...string) Option {
	return func(c *Config) {
		c.numericFields = make(map[string]bool, len(names))
		for _, name := range names {
			c.numericFields[name] = true
		}
	}
}

// WithUnknownMarker replaces the marker written into unresolved fields.
func WithUnknownMarker(marker string) Option {
	return func(c *Config) {
		c.unknown = marker
	}
}

// WithWorkers sets the concurrent section job limit.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.workers = n
	}
}

func newConfig(opts ...Option) Config {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.numericFields == nil {
		cfg.numericFields = make(map[string]bool, len(defaultNumericFields))
		for _, name := range defaultNumericFields {
			cfg.numericFields[name] = true
		}
	}
	if cfg.unknown == "" {
		cfg.unknown = DefaultUnknown
	}
	if cfg.workers <= 0 {
		cfg.workers = DefaultWorkers
	}
	return cfg
}
