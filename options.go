package libdex

import (
	"os"
	"runtime"
	"strconv"
)

// Config holds the resolved configuration for a thread-pool Scheduler.
// The zero value is never used directly; see resolveOptions.
type Config struct {
	// ThreadPoolWorkers is the number of worker goroutines a thread-pool
	// Scheduler runs. Defaults to runtime.GOMAXPROCS(0), overridable via the
	// DEX_THREAD_POOL_WORKERS environment variable.
	ThreadPoolWorkers int
	// DefaultStackSize is a fiber stack size, in bytes. Defaults to 256KiB,
	// overridable via the DEX_STACK_SIZE environment variable. Spawn takes
	// its default from that same variable and fallback directly; a value set
	// here with WithDefaultStackSize is not passed on to Spawn.
	DefaultStackSize int
	// Steal disables work-stealing between thread-pool workers when false.
	// Defaults to true.
	Steal bool
	// Logger overrides the package-level logger for diagnostics originating
	// from this Scheduler. Nil uses the current package-level logger.
	Logger Logger
	// MetricsEnabled creates prometheus collectors for this Scheduler when
	// true, returned by ThreadPool.Collectors for the caller to register.
	// Defaults to false.
	MetricsEnabled bool
}

// Option configures a Config.
type Option interface {
	applyConfig(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) applyConfig(cfg *Config) { f(cfg) }

// WithThreadPoolWorkers overrides the number of thread-pool workers.
func WithThreadPoolWorkers(n int) Option {
	return optionFunc(func(cfg *Config) { cfg.ThreadPoolWorkers = n })
}

// WithDefaultStackSize sets Config.DefaultStackSize, in bytes. Spawn does not
// read it; see Config.DefaultStackSize.
func WithDefaultStackSize(bytes int) Option {
	return optionFunc(func(cfg *Config) { cfg.DefaultStackSize = bytes })
}

// WithSteal enables or disables work-stealing between thread-pool workers.
func WithSteal(enabled bool) Option {
	return optionFunc(func(cfg *Config) { cfg.Steal = enabled })
}

// WithConfigLogger overrides the logger used for diagnostics from a single
// Scheduler, independent of the package-level logger installed via
// SetLogger.
func WithConfigLogger(l Logger) Option {
	return optionFunc(func(cfg *Config) { cfg.Logger = l })
}

// WithMetricsEnabled creates prometheus collectors for a Scheduler; see
// Config.MetricsEnabled.
func WithMetricsEnabled(enabled bool) Option {
	return optionFunc(func(cfg *Config) { cfg.MetricsEnabled = enabled })
}

const (
	defaultStackSize = 256 * 1024

	envThreadPoolWorkers = "DEX_THREAD_POOL_WORKERS"
	envStackSize         = "DEX_STACK_SIZE"
)

// resolveOptions applies opts over the environment-aware defaults, mirroring
// eventloop's resolveLoopOptions: nil options are skipped, later options win
// over earlier ones.
func resolveOptions(opts []Option) *Config {
	cfg := &Config{
		ThreadPoolWorkers: envOrDefaultInt(envThreadPoolWorkers, runtime.GOMAXPROCS(0)),
		DefaultStackSize:  envOrDefaultInt(envStackSize, defaultStackSize),
		Steal:             true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyConfig(cfg)
	}
	if cfg.ThreadPoolWorkers < 1 {
		cfg.ThreadPoolWorkers = 1
	}
	if cfg.DefaultStackSize < 1 {
		cfg.DefaultStackSize = defaultStackSize
	}
	return cfg
}

func envOrDefaultInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
