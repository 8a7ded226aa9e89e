package match

import "time"

type Config struct {
	// MatchDuration is the starting allotment of each side.
	MatchDuration time.Duration
	// DecrementInterval is both the tick period and the amount taken off
	// the active side per tick.
	DecrementInterval time.Duration
	PollInterval      time.Duration
	// ExpiryFloor is the remaining time under which a side loses on time.
	ExpiryFloor    time.Duration
	PersistTimeout time.Duration
	// FormingTTL is how long a match may wait for both players before a
	// sweep abandons it. Zero keeps forming matches forever.
	FormingTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		MatchDuration:     60 * time.Second,
		DecrementInterval: 10 * time.Millisecond,
		PollInterval:      50 * time.Millisecond,
		ExpiryFloor:       50 * time.Millisecond,
		PersistTimeout:    10 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.MatchDuration <= 0 {
		cfg.MatchDuration = def.MatchDuration
	}
	if cfg.DecrementInterval <= 0 {
		cfg.DecrementInterval = def.DecrementInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ExpiryFloor < 0 {
		cfg.ExpiryFloor = def.ExpiryFloor
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = def.PersistTimeout
	}
	return cfg
}
